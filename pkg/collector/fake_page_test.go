package collector_test

import (
	"context"
	"strings"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
)

// fakePage scripts the browser: search pages yield video or user cards,
// video pages yield comments keyed by URL. Every snapshot returns the full
// set, so harvests finish by exhaustion once everything has been seen.
type fakePage struct {
	videoCards []browser.VideoCard
	userCards  []browser.UserCard
	comments   map[string][]string

	// failComments marks video URLs whose comment snapshots always fail.
	failComments map[string]error

	current   string
	navigated []string
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	f.current = url
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakePage) VideoCards(context.Context) ([]browser.VideoCard, error) {
	return f.videoCards, nil
}

func (f *fakePage) UserCards(context.Context) ([]browser.UserCard, error) {
	return f.userCards, nil
}

func (f *fakePage) Comments(context.Context) ([]string, error) {
	if err, ok := f.failComments[f.current]; ok {
		return nil, err
	}
	return f.comments[f.current], nil
}

func (f *fakePage) Scroll(context.Context) error         { return nil }
func (f *fakePage) ScrollComments(context.Context) error { return nil }
func (f *fakePage) OpenCommentPanel(context.Context) error {
	return nil
}

func (f *fakePage) ResolveVideoURL(_ context.Context, url string) (string, error) {
	if !strings.Contains(url, "/video/") {
		return browser.NormalizeURL(url) + "/video/resolved", nil
	}
	return browser.NormalizeURL(url), nil
}

func (f *fakePage) ResolveUser(_ context.Context, input string) (string, error) {
	return browser.ProfileURL(input), nil
}

func (f *fakePage) Close() error { return nil }

// recordingExecution captures every report for assertions.
type recordingExecution struct {
	progress  []float64
	collected []int
	messages  []string
	stopAfter int // stop once this many reports arrived; 0 disables
	reports   int
}

func (r *recordingExecution) Report(progress float64, collected int, message string) {
	r.reports++
	r.progress = append(r.progress, progress)
	r.collected = append(r.collected, collected)
	r.messages = append(r.messages, message)
}

func (r *recordingExecution) Stopped() bool {
	return r.stopAfter > 0 && r.reports >= r.stopAfter
}
