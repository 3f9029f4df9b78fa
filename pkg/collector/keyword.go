package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// KeywordParams drives the keyword-search strategy.
type KeywordParams struct {
	Keyword       string
	ScrollCount   int
	Delay         time.Duration
	MaxVideos     int
	PerVideoLimit int
}

// KeywordComments discovers videos for a keyword, ranks them by like count,
// and harvests comments from the top MaxVideos in ranked order.
func (c *Collector) KeywordComments(ctx context.Context, exec Execution, p KeywordParams) (*Result, error) {
	exec = orNoop(exec)
	log := c.logger.WithFields(logrus.Fields{
		"keyword":         p.Keyword,
		"max_videos":      p.MaxVideos,
		"per_video_limit": p.PerVideoLimit,
	})
	log.Info("Starting keyword comment collection")

	res := &Result{Keyword: p.Keyword, Comments: []Comment{}}

	videos, err := c.discoverSearchVideos(ctx, exec, p.Keyword, p.ScrollCount, p.Delay, discoveryWeight)
	if err != nil {
		return res, fmt.Errorf("keyword %q: %w", p.Keyword, err)
	}
	if len(videos) == 0 {
		log.Warn("No videos discovered for keyword")
		exec.Report(100, 0, "no videos found")
		return res, nil
	}

	ranked := rankByLikes(videos)
	if len(ranked) > p.MaxVideos {
		ranked = ranked[:p.MaxVideos]
	}
	res.VideoCount = len(ranked)
	log.WithFields(logrus.Fields{
		"discovered": len(videos),
		"selected":   len(ranked),
	}).Info("Ranked discovery results")

	if err := c.harvestTargets(ctx, exec, ranked, p.PerVideoLimit, res); err != nil {
		return res, fmt.Errorf("keyword %q: %w", p.Keyword, err)
	}

	exec.Report(100, len(res.Comments), finalMessage(res))
	log.WithField("comments", res.CommentCount).Info("Keyword comment collection finished")
	return res, nil
}

// finalMessage summarizes the outcome, calling out skipped targets so
// partial successes are visible to the client.
func finalMessage(res *Result) string {
	if len(res.Skipped) > 0 {
		return fmt.Sprintf("collected %d comments, %d/%d videos skipped due to extraction errors",
			res.CommentCount, len(res.Skipped), res.VideoCount)
	}
	return fmt.Sprintf("collected %d comments from %d videos", res.CommentCount, res.VideoCount)
}
