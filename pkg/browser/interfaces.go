// Package browser defines the contract between the harvesting engine and the
// browser-automation driver, plus a Chromium implementation of it. The engine
// only ever talks to the Page interface, so tests substitute scripted fakes.
package browser

import (
	"context"
)

// Page is the snapshot source the harvesting engine drives. Snapshot methods
// return whatever candidate items are currently rendered; Scroll methods
// advance the page so lazy-loaded content appears in the next snapshot.
type Page interface {
	// Navigate opens the given URL and waits for the initial render.
	Navigate(ctx context.Context, url string) error

	// VideoCards returns the video result cards currently visible.
	VideoCards(ctx context.Context) ([]VideoCard, error)

	// UserCards returns the user result cards currently visible.
	UserCards(ctx context.Context) ([]UserCard, error)

	// Comments returns the comment texts currently visible on a video page.
	Comments(ctx context.Context) ([]string, error)

	// Scroll scrolls the window to the bottom of the document.
	Scroll(ctx context.Context) error

	// ScrollComments scrolls the comment panel, falling back to the window
	// when no dedicated panel is present.
	ScrollComments(ctx context.Context) error

	// OpenCommentPanel clicks the comment tab if one exists. Best effort:
	// a missing tab is not an error.
	OpenCommentPanel(ctx context.Context) error

	// ResolveVideoURL resolves a search-result or modal link to the canonical
	// video detail URL, following redirects when needed.
	ResolveVideoURL(ctx context.Context, url string) (string, error)

	// ResolveUser resolves a username, Douyin ID, @handle or profile URL to
	// the user's profile page URL.
	ResolveUser(ctx context.Context, input string) (string, error)

	// Close releases the underlying browser page.
	Close() error
}

// Resource gates exclusive use of the single browser session. The task
// manager is the only acquirer; strategies never touch it.
type Resource interface {
	TryAcquire() bool
	Release()
}
