// Package harvest implements the scroll-driven collection loop: a
// deduplicating accumulator fed by repeated page snapshots, governed by a
// limit, an iteration budget and stagnation detection.
package harvest

import (
	"strings"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
)

// KeyFunc derives the dedup key for an item. Returning ok=false rejects the
// item outright (it neither counts as new nor as a duplicate).
type KeyFunc[T any] func(item T) (key string, ok bool)

// Accumulator keeps an insertion-ordered, duplicate-free collection of items
// across snapshots.
type Accumulator[T any] struct {
	keyFn KeyFunc[T]
	seen  map[string]struct{}
	items []T
}

func NewAccumulator[T any](keyFn KeyFunc[T]) *Accumulator[T] {
	return &Accumulator[T]{
		keyFn: keyFn,
		seen:  make(map[string]struct{}),
	}
}

// Offer adds the item unless it is rejected by the key function or already
// present. Returns true only when the item was newly added.
func (a *Accumulator[T]) Offer(item T) bool {
	key, ok := a.keyFn(item)
	if !ok {
		return false
	}
	if _, dup := a.seen[key]; dup {
		return false
	}
	a.seen[key] = struct{}{}
	a.items = append(a.items, item)
	return true
}

// Size returns the number of distinct items accumulated so far.
func (a *Accumulator[T]) Size() int {
	return len(a.items)
}

// Items returns the accumulated items, oldest first.
func (a *Accumulator[T]) Items() []T {
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}

// Remaining reports how many more items fit under limit.
func (a *Accumulator[T]) Remaining(limit int) int {
	if r := limit - len(a.items); r > 0 {
		return r
	}
	return 0
}

// NormalizeText collapses internal whitespace and trims, preserving case.
// Two comments with equal normalized text are the same comment.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CommentKey dedups comments by normalized text; empty text is rejected.
func CommentKey(text string) (string, bool) {
	norm := NormalizeText(text)
	return norm, norm != ""
}

// TargetKey dedups discovered videos by their normalized URL.
func TargetKey(card browser.VideoCard) (string, bool) {
	url := browser.NormalizeURL(card.VideoURL)
	return url, url != ""
}

// UserKey dedups discovered user cards by profile link, falling back to the
// display title for cards rendered without one.
func UserKey(card browser.UserCard) (string, bool) {
	if url := browser.NormalizeURL(card.UserLink); url != "" {
		return url, true
	}
	return card.Title, card.Title != ""
}
