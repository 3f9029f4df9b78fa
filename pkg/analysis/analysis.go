// Package analysis aggregates collected Douyin records into interaction,
// content length and keyword frequency statistics. All functions operate on a
// snapshot of corpus entries and never touch the browser.
package analysis

import (
	"fmt"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
)

// Entry is one corpus record projected onto the two fields the analyses need:
// the display text and the raw like counter as scraped from the page.
type Entry struct {
	Text  string
	Likes string
}

// VideoEntries projects collected video cards into analysis entries.
func VideoEntries(cards []browser.VideoCard) []Entry {
	entries := make([]Entry, 0, len(cards))
	for _, c := range cards {
		entries = append(entries, Entry{Text: c.Title, Likes: c.Likes})
	}
	return entries
}

// UserEntries projects collected user cards into analysis entries. User cards
// carry the aggregate like counter of the account.
func UserEntries(cards []browser.UserCard) []Entry {
	entries := make([]Entry, 0, len(cards))
	for _, c := range cards {
		entries = append(entries, Entry{Text: c.Title, Likes: c.Likes})
	}
	return entries
}

// EmptyCorpusError reports that an analysis was requested before any data had
// been collected.
type EmptyCorpusError struct {
	Analysis string
}

func (e *EmptyCorpusError) Error() string {
	return fmt.Sprintf("analysis %q: no collected data", e.Analysis)
}
