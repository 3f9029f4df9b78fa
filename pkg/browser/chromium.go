package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

var _ Page = (*Chromium)(nil)

// Chromium drives a real Chromium instance through the DevTools protocol.
// One Chromium serves one page at a time; the task manager serializes access.
type Chromium struct {
	cfg    Config
	logger *logrus.Logger

	mu          sync.Mutex
	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc
}

// NewChromium creates a driver. The browser process launches lazily on the
// first Navigate so the server can start without Chromium installed.
func NewChromium(cfg Config) *Chromium {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Chromium{cfg: cfg, logger: logger}
}

func (c *Chromium) ensureStarted() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pageCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if c.cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(c.cfg.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so launch failures surface here.
	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		allocCancel()
		return &CollaboratorError{Op: "launch", Err: err, Retryable: false}
	}

	c.allocCancel = allocCancel
	c.pageCtx = pageCtx
	c.pageCancel = pageCancel
	c.logger.WithField("headless", c.cfg.Headless).Info("Chromium session started")
	return nil
}

// run executes driver actions with the configured per-call timeout.
func (c *Chromium) run(op, url string, actions ...chromedp.Action) error {
	if err := c.ensureStarted(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.pageCtx, c.cfg.CallTimeout)
	defer cancel()

	if err := chromedp.Run(ctx, actions...); err != nil {
		retryable := ctx.Err() == context.DeadlineExceeded
		return &CollaboratorError{Op: op, URL: url, Err: err, Retryable: retryable}
	}
	return nil
}

// Navigate opens the URL and waits for the page to settle. Video pages get a
// longer settle window than search pages.
func (c *Chromium) Navigate(ctx context.Context, url string) error {
	wait := c.cfg.NavWait
	if IsVideoURL(url) {
		wait = c.cfg.VideoWait
	}
	c.logger.WithField("url", url).Debug("Navigating")
	return c.run("navigate", url, chromedp.Navigate(url), chromedp.Sleep(wait))
}

func (c *Chromium) html() (string, error) {
	var html string
	if err := c.run("snapshot", "", chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// VideoCards snapshots the currently rendered video result cards, preferring
// the scroll-list container when the page has one.
func (c *Chromium) VideoCards(ctx context.Context) ([]VideoCard, error) {
	html, err := c.html()
	if err != nil {
		return nil, err
	}
	if cards := ExtractVideoCardsInList(html); cards != nil {
		return cards, nil
	}
	return ExtractVideoCards(html), nil
}

// UserCards snapshots the currently rendered user result cards.
func (c *Chromium) UserCards(ctx context.Context) ([]UserCard, error) {
	html, err := c.html()
	if err != nil {
		return nil, err
	}
	return ExtractUserCards(html), nil
}

// Comments snapshots the comment texts currently rendered on a video page.
func (c *Chromium) Comments(ctx context.Context) ([]string, error) {
	html, err := c.html()
	if err != nil {
		return nil, err
	}
	return ExtractComments(html), nil
}

// Scroll scrolls the window to the bottom of the document.
func (c *Chromium) Scroll(ctx context.Context) error {
	return c.run("scroll", "",
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// ScrollComments scrolls the comment panel when one exists, otherwise the
// window.
func (c *Chromium) ScrollComments(ctx context.Context) error {
	const js = `(() => {
		const panel = document.querySelector('[data-e2e="comment-list"], .comment-list, [class*="CommentList"]');
		if (panel) {
			panel.scrollTop = panel.scrollHeight;
		} else {
			window.scrollTo(0, document.body.scrollHeight);
		}
		return true;
	})()`
	var ok bool
	return c.run("scroll-comments", "", chromedp.Evaluate(js, &ok))
}

// OpenCommentPanel clicks the 评论 tab if present. Pages that open with the
// panel already expanded simply have no tab to click.
func (c *Chromium) OpenCommentPanel(ctx context.Context) error {
	const js = `(() => {
		const nodes = document.querySelectorAll('span, div');
		for (const n of nodes) {
			if (n.childElementCount === 0 && n.textContent.trim() === '评论') {
				n.click();
				return true;
			}
		}
		return false;
	})()`
	var clicked bool
	if err := c.run("open-comments", "", chromedp.Evaluate(js, &clicked), chromedp.Sleep(2*time.Second)); err != nil {
		c.logger.WithError(err).Debug("Comment tab click failed, panel may already be open")
		return nil
	}
	if clicked {
		c.logger.Debug("Clicked comment tab")
	}
	return nil
}

// ResolveVideoURL follows a search-result or modal link to the canonical
// /video/ URL.
func (c *Chromium) ResolveVideoURL(ctx context.Context, url string) (string, error) {
	norm := NormalizeURL(url)
	if IsVideoURL(norm) {
		return norm, nil
	}

	var finalURL string
	err := c.run("resolve-video", norm,
		chromedp.Navigate(norm),
		chromedp.Sleep(c.cfg.NavWait),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return "", err
	}
	if finalURL == "" {
		return "", &CollaboratorError{Op: "resolve-video", URL: norm,
			Err: fmt.Errorf("could not determine final location"), Retryable: true}
	}
	return NormalizeURL(finalURL), nil
}

// ResolveUser maps user input onto the profile URL and opens it.
func (c *Chromium) ResolveUser(ctx context.Context, input string) (string, error) {
	url := ProfileURL(input)
	if err := c.Navigate(ctx, url); err != nil {
		return "", err
	}
	return url, nil
}

// Close shuts the browser down. Safe to call before the first launch.
func (c *Chromium) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pageCtx == nil {
		return nil
	}
	c.pageCancel()
	c.allocCancel()
	c.pageCtx = nil
	c.pageCancel = nil
	c.allocCancel = nil
	c.logger.Info("Chromium session closed")
	return nil
}

// Session guards the single browser session. Exactly one task can hold it.
type Session struct {
	mu sync.Mutex
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) TryAcquire() bool {
	return s.mu.TryLock()
}

func (s *Session) Release() {
	s.mu.Unlock()
}
