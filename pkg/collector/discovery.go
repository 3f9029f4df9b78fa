package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/harvest"
)

// discoverSearchVideos scrolls a keyword's video search results and returns
// the deduplicated cards in first-seen order. Discovered cards are recorded
// in the corpus as they arrive. With weight 1.0 the discovery pass is the
// whole task, and discovered cards count as collected items.
func (c *Collector) discoverSearchVideos(ctx context.Context, exec Execution, keyword string, scrollCount int, delay time.Duration, weight float64) ([]browser.VideoCard, error) {
	searchURL := browser.SearchURL(keyword, "video")
	if err := c.page.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("open search page: %w", err)
	}

	log := c.logger.WithFields(logrus.Fields{"keyword": keyword, "phase": "discovery"})

	acc := harvest.NewAccumulator(harvest.TargetKey)
	h, err := harvest.New(
		harvest.Config{
			Limit:          c.cfg.DiscoveryLimit,
			MaxIterations:  scrollCount,
			Delay:          delay,
			StagnantRounds: c.cfg.StagnantRounds,
			Logger:         log,
		},
		acc,
		func(ctx context.Context) ([]browser.VideoCard, error) {
			cards, err := c.page.VideoCards(ctx)
			if err != nil {
				return nil, err
			}
			c.corpus.AddVideos(cards, keyword)
			return cards, nil
		},
		c.page.Scroll,
		func(count, iteration int) {
			progress := weight * float64(iteration) / float64(scrollCount) * 100
			collected := 0
			if weight >= 1.0 {
				collected = count
			}
			exec.Report(progress, collected, fmt.Sprintf("scrolling %d/%d (%d videos found)", iteration, scrollCount, count))
		},
		exec.Stopped,
	)
	if err != nil {
		return nil, err
	}

	res, err := h.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("search discovery: %w", err)
	}
	log.WithFields(logrus.Fields{
		"videos":     len(res.Items),
		"iterations": res.Iterations,
		"reason":     res.Reason,
	}).Info("Video discovery finished")
	return res.Items, nil
}

// discoverUserVideos opens the user's profile and scrolls the video grid.
// Order of the returned cards is the presentation order on the profile page.
func (c *Collector) discoverUserVideos(ctx context.Context, exec Execution, userInput string, scrollCount int, delay time.Duration, weight float64) ([]browser.VideoCard, error) {
	profileURL, err := c.page.ResolveUser(ctx, userInput)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", userInput, err)
	}

	log := c.logger.WithFields(logrus.Fields{"user": userInput, "profile_url": profileURL, "phase": "discovery"})

	acc := harvest.NewAccumulator(harvest.TargetKey)
	h, err := harvest.New(
		harvest.Config{
			Limit:          c.cfg.DiscoveryLimit,
			MaxIterations:  scrollCount,
			Delay:          delay,
			StagnantRounds: c.cfg.StagnantRounds,
			Logger:         log,
		},
		acc,
		func(ctx context.Context) ([]browser.VideoCard, error) {
			cards, err := c.page.VideoCards(ctx)
			if err != nil {
				return nil, err
			}
			c.corpus.AddVideos(cards, "")
			return cards, nil
		},
		c.page.Scroll,
		func(count, iteration int) {
			progress := weight * float64(iteration) / float64(scrollCount) * 100
			exec.Report(progress, 0, fmt.Sprintf("scrolling profile %d/%d (%d videos found)", iteration, scrollCount, count))
		},
		exec.Stopped,
	)
	if err != nil {
		return nil, err
	}

	res, err := h.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile discovery: %w", err)
	}
	log.WithFields(logrus.Fields{
		"videos":     len(res.Items),
		"iterations": res.Iterations,
		"reason":     res.Reason,
	}).Info("Profile discovery finished")
	return res.Items, nil
}

// rankByLikes orders targets by like count descending. The sort is stable:
// targets with equal counts keep their first-discovery order.
func rankByLikes(cards []browser.VideoCard) []browser.VideoCard {
	ranked := make([]browser.VideoCard, len(cards))
	copy(ranked, cards)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LikeCount() > ranked[j].LikeCount()
	})
	return ranked
}
