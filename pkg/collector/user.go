package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// UserParams drives the user-harvest strategy.
type UserParams struct {
	UserInput     string
	ScrollCount   int
	Delay         time.Duration
	PerVideoLimit int
}

// UserComments discovers every video on a user's profile and harvests
// comments from each, in profile presentation order. No ranking phase.
func (c *Collector) UserComments(ctx context.Context, exec Execution, p UserParams) (*Result, error) {
	exec = orNoop(exec)
	log := c.logger.WithFields(logrus.Fields{
		"user":            p.UserInput,
		"per_video_limit": p.PerVideoLimit,
	})
	log.Info("Starting user comment collection")

	res := &Result{UserInput: p.UserInput, Comments: []Comment{}}

	videos, err := c.discoverUserVideos(ctx, exec, p.UserInput, p.ScrollCount, p.Delay, discoveryWeight)
	if err != nil {
		return res, fmt.Errorf("user %q: %w", p.UserInput, err)
	}
	if len(videos) == 0 {
		log.Warn("No videos found on user profile")
		exec.Report(100, 0, "no videos found")
		return res, nil
	}

	res.VideoCount = len(videos)
	if err := c.harvestTargets(ctx, exec, videos, p.PerVideoLimit, res); err != nil {
		return res, fmt.Errorf("user %q: %w", p.UserInput, err)
	}

	exec.Report(100, len(res.Comments), finalMessage(res))
	log.WithFields(logrus.Fields{
		"videos":   res.VideoCount,
		"comments": res.CommentCount,
	}).Info("User comment collection finished")
	return res, nil
}
