// Package collector implements the three collection strategies: keyword
// search (discover and rank videos, then harvest comments per video), direct
// video harvesting, and user-profile harvesting. A fourth, discovery-only
// strategy fills the corpus from search result pages.
package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/corpus"
)

// Execution is the strategy's view of the task executing it: progress and
// message reporting plus the cooperative stop flag.
type Execution interface {
	// Report publishes progress [0,100], the running collected count and a
	// human-readable state message.
	Report(progress float64, collected int, message string)
	// Stopped reports whether the owning task was asked to stop.
	Stopped() bool
}

// Comment is one harvested comment in the fixed result envelope shape.
type Comment struct {
	Comment string `json:"comment"`
}

// Result is the final payload of a collection task.
type Result struct {
	Keyword      string    `json:"keyword,omitempty"`
	UserInput    string    `json:"user_input,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	SearchType   string    `json:"search_type,omitempty"`
	VideoCount   int       `json:"video_count"`
	UserCount    int       `json:"user_count,omitempty"`
	CommentCount int       `json:"comment_count"`
	Comments     []Comment `json:"comments"`
	Skipped      []string  `json:"skipped,omitempty"`
}

// Config tunes the strategies. Zero values fall back to defaults matching
// the site's observed behavior.
type Config struct {
	// MaxCommentScrolls bounds the comment harvest loop per video.
	MaxCommentScrolls int
	// CommentScrollDelay paces the comment harvest loop.
	CommentScrollDelay time.Duration
	// DiscoveryLimit caps how many targets one discovery pass may return.
	DiscoveryLimit int
	// StagnantRounds is forwarded to the harvesters.
	StagnantRounds int
	// RetryAttempts is how many extra tries a failing per-video harvest gets.
	RetryAttempts int
	// RetryBackoff is the fixed pause between those tries.
	RetryBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxCommentScrolls <= 0 {
		c.MaxCommentScrolls = 30
	}
	if c.CommentScrollDelay <= 0 {
		c.CommentScrollDelay = 1500 * time.Millisecond
	}
	if c.DiscoveryLimit <= 0 {
		c.DiscoveryLimit = 1000
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 2
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 2 * time.Second
	}
	return c
}

// discoveryWeight is the share of overall progress assigned to the discovery
// phase of two-phase strategies; the comment fan-out owns the rest.
const discoveryWeight = 0.3

// Collector runs strategies against one browser page. It never acquires the
// page itself; the task manager guarantees exclusive access.
type Collector struct {
	page   browser.Page
	corpus *corpus.Store
	logger *logrus.Logger
	cfg    Config
}

func New(page browser.Page, store *corpus.Store, logger *logrus.Logger, cfg Config) *Collector {
	return &Collector{
		page:   page,
		corpus: store,
		logger: logger,
		cfg:    cfg.withDefaults(),
	}
}

// noopExecution lets strategies run without a task context, e.g. from tests.
type noopExecution struct{}

func (noopExecution) Report(float64, int, string) {}
func (noopExecution) Stopped() bool               { return false }

func orNoop(exec Execution) Execution {
	if exec == nil {
		return noopExecution{}
	}
	return exec
}

// sleepCtx pauses for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
