package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/harvest"
)

// SearchParams drives the discovery-only collection strategy.
type SearchParams struct {
	Keyword     string
	SearchType  string // "video" or "user"
	ScrollCount int
	Delay       time.Duration
}

// SearchCollect scrolls a keyword's search results and stores the discovered
// cards in the corpus without harvesting comments. SearchType selects video
// or user cards.
func (c *Collector) SearchCollect(ctx context.Context, exec Execution, p SearchParams) (*Result, error) {
	exec = orNoop(exec)
	log := c.logger.WithFields(logrus.Fields{
		"keyword":     p.Keyword,
		"search_type": p.SearchType,
	})
	log.Info("Starting search collection")

	res := &Result{Keyword: p.Keyword, SearchType: p.SearchType, Comments: []Comment{}}

	if p.SearchType == "user" {
		users, err := c.collectUserCards(ctx, exec, p)
		if err != nil {
			return res, fmt.Errorf("search %q: %w", p.Keyword, err)
		}
		res.UserCount = len(users)
		exec.Report(100, len(users), fmt.Sprintf("collected %d users", len(users)))
		log.WithField("users", len(users)).Info("Search collection finished")
		return res, nil
	}

	videos, err := c.discoverSearchVideos(ctx, exec, p.Keyword, p.ScrollCount, p.Delay, 1.0)
	if err != nil {
		return res, fmt.Errorf("search %q: %w", p.Keyword, err)
	}
	res.VideoCount = len(videos)
	exec.Report(100, len(videos), fmt.Sprintf("collected %d videos", len(videos)))
	log.WithField("videos", len(videos)).Info("Search collection finished")
	return res, nil
}

func (c *Collector) collectUserCards(ctx context.Context, exec Execution, p SearchParams) ([]browser.UserCard, error) {
	searchURL := browser.SearchURL(p.Keyword, "user")
	if err := c.page.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("open search page: %w", err)
	}

	acc := harvest.NewAccumulator(harvest.UserKey)
	h, err := harvest.New(
		harvest.Config{
			Limit:          c.cfg.DiscoveryLimit,
			MaxIterations:  p.ScrollCount,
			Delay:          p.Delay,
			StagnantRounds: c.cfg.StagnantRounds,
			Logger:         c.logger.WithFields(logrus.Fields{"keyword": p.Keyword, "phase": "user-discovery"}),
		},
		acc,
		func(ctx context.Context) ([]browser.UserCard, error) {
			cards, err := c.page.UserCards(ctx)
			if err != nil {
				return nil, err
			}
			c.corpus.AddUsers(cards, p.Keyword)
			return cards, nil
		},
		c.page.Scroll,
		func(count, iteration int) {
			progress := float64(iteration) / float64(p.ScrollCount) * 100
			exec.Report(progress, count, fmt.Sprintf("scrolling %d/%d (%d users found)", iteration, p.ScrollCount, count))
		},
		exec.Stopped,
	)
	if err != nil {
		return nil, err
	}

	res, err := h.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
