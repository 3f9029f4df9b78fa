package collector

import (
	"context"
	"fmt"
)

// VideoParams drives the direct video-harvest strategy.
type VideoParams struct {
	VideoURL string
	Limit    int
}

// VideoComments harvests comments from a single video. The simplest
// strategy: no discovery, no ranking.
func (c *Collector) VideoComments(ctx context.Context, exec Execution, p VideoParams) (*Result, error) {
	exec = orNoop(exec)
	log := c.logger.WithField("video_url", p.VideoURL)
	log.Info("Starting video comment collection")

	videoURL, err := c.page.ResolveVideoURL(ctx, p.VideoURL)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", p.VideoURL, err)
	}

	res := &Result{VideoURL: videoURL, VideoCount: 1, Comments: []Comment{}}

	comments, err := c.fetchCommentsWithRetry(ctx, exec, videoURL, p.Limit, 0, 0)
	if err != nil {
		return res, fmt.Errorf("harvest %s: %w", videoURL, err)
	}

	for _, text := range comments {
		res.Comments = append(res.Comments, Comment{Comment: text})
	}
	res.CommentCount = len(res.Comments)
	c.corpus.SetCommentCount(videoURL, res.CommentCount)

	exec.Report(100, res.CommentCount, fmt.Sprintf("collected %d comments", res.CommentCount))
	log.WithField("comments", res.CommentCount).Info("Video comment collection finished")
	return res, nil
}
