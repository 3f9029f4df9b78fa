package collector

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/harvest"
)

// fetchComments harvests up to limit comments from one video page.
// baseCollected is the task-level total before this video; it keeps the
// reported collected count running across the whole fan-out.
func (c *Collector) fetchComments(ctx context.Context, exec Execution, videoURL string, limit int, baseCollected int, progressFloor float64) ([]string, error) {
	if err := c.page.Navigate(ctx, videoURL); err != nil {
		return nil, err
	}
	if err := c.page.OpenCommentPanel(ctx); err != nil {
		return nil, err
	}

	log := c.logger.WithFields(logrus.Fields{"video_url": videoURL, "phase": "comments"})

	acc := harvest.NewAccumulator(harvest.CommentKey)
	h, err := harvest.New(
		harvest.Config{
			Limit:          limit,
			MaxIterations:  c.cfg.MaxCommentScrolls,
			Delay:          c.cfg.CommentScrollDelay,
			StagnantRounds: c.cfg.StagnantRounds,
			Logger:         log,
		},
		acc,
		c.page.Comments,
		c.page.ScrollComments,
		func(count, iteration int) {
			exec.Report(progressFloor, baseCollected+count,
				fmt.Sprintf("scrolling comments %d/%d", count, limit))
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
	log.WithFields(logrus.Fields{
		"comments":   len(res.Items),
		"iterations": res.Iterations,
		"reason":     res.Reason,
	}).Info("Comment harvest finished")
	return res.Items, nil
}

// fetchCommentsWithRetry applies the per-target failure policy: up to
// RetryAttempts extra tries with a fixed backoff, abandoning early when the
// error is marked non-retryable or the task was asked to stop.
func (c *Collector) fetchCommentsWithRetry(ctx context.Context, exec Execution, videoURL string, limit, baseCollected int, progressFloor float64) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"video_url": videoURL,
				"attempt":   attempt,
			}).Info("Retrying comment harvest")
			sleepCtx(ctx, c.cfg.RetryBackoff)
		}

		comments, err := c.fetchComments(ctx, exec, videoURL, limit, baseCollected, progressFloor)
		if err == nil {
			return comments, nil
		}
		lastErr = err
		if exec.Stopped() || !browser.IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

// harvestTargets runs the comment harvest over every target in order,
// tolerating per-target failures. It mutates res in place so partial results
// survive a mid-flight stop. Returns an error only when every target failed.
func (c *Collector) harvestTargets(ctx context.Context, exec Execution, targets []browser.VideoCard, perVideoLimit int, res *Result) error {
	if len(targets) == 0 {
		return nil
	}

	succeeded := 0
	for i, target := range targets {
		if exec.Stopped() {
			break
		}

		// Progress floor for this target: discovery share plus the share of
		// targets already fully processed.
		floor := (discoveryWeight + (1-discoveryWeight)*float64(i)/float64(len(targets))) * 100

		videoURL := browser.NormalizeURL(target.VideoURL)
		if !browser.IsVideoURL(videoURL) {
			resolved, err := c.page.ResolveVideoURL(ctx, videoURL)
			if err != nil {
				c.logger.WithError(err).WithField("video_url", videoURL).Warn("Could not resolve video link, skipping")
				res.Skipped = append(res.Skipped, videoURL)
				continue
			}
			videoURL = resolved
		}

		comments, err := c.fetchCommentsWithRetry(ctx, exec, videoURL, perVideoLimit, len(res.Comments), floor)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"video_url": videoURL,
				"target":    i + 1,
				"targets":   len(targets),
			}).Warn("Comment harvest failed after retries, skipping video")
			res.Skipped = append(res.Skipped, videoURL)
			continue
		}

		for _, text := range comments {
			res.Comments = append(res.Comments, Comment{Comment: text})
		}
		res.CommentCount = len(res.Comments)
		c.corpus.SetCommentCount(videoURL, len(comments))
		succeeded++

		done := (discoveryWeight + (1-discoveryWeight)*float64(i+1)/float64(len(targets))) * 100
		exec.Report(done, len(res.Comments),
			fmt.Sprintf("harvested %d/%d videos, %d comments", i+1, len(targets), len(res.Comments)))
	}

	if succeeded == 0 && !exec.Stopped() {
		return fmt.Errorf("all %d targets failed (skipped: %d)", len(targets), len(res.Skipped))
	}
	return nil
}
