package analysis

import "github.com/liuwen-dev/douyin-harvester/pkg/browser"

// InteractionStats summarises the like counters of a set of entries. Records
// whose counter cannot be parsed (e.g. "N/A") count towards TotalCount but are
// excluded from the arithmetic, so AvgLikes is the mean over ParsedCount.
type InteractionStats struct {
	TotalCount  int     `json:"total_count"`
	ParsedCount int     `json:"parsed_count"`
	TotalLikes  int64   `json:"total_likes"`
	AvgLikes    float64 `json:"avg_likes"`
	MaxLikes    int64   `json:"max_likes"`
	MinLikes    int64   `json:"min_likes"`
}

// AnalyzeInteraction computes like statistics over the entries. Display
// counters using the 万 suffix are scaled to absolute numbers.
func AnalyzeInteraction(entries []Entry) (*InteractionStats, error) {
	if len(entries) == 0 {
		return nil, &EmptyCorpusError{Analysis: "interaction"}
	}

	stats := &InteractionStats{TotalCount: len(entries)}
	for _, e := range entries {
		n, ok := browser.ParseCountOK(e.Likes)
		if !ok {
			continue
		}
		if stats.ParsedCount == 0 {
			stats.MaxLikes = n
			stats.MinLikes = n
		} else {
			if n > stats.MaxLikes {
				stats.MaxLikes = n
			}
			if n < stats.MinLikes {
				stats.MinLikes = n
			}
		}
		stats.ParsedCount++
		stats.TotalLikes += n
	}
	if stats.ParsedCount > 0 {
		stats.AvgLikes = float64(stats.TotalLikes) / float64(stats.ParsedCount)
	}
	return stats, nil
}
