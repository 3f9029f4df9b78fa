package analysis

import "unicode/utf8"

// lengthRanges are the fixed buckets content length is reported over. Bounds
// are inclusive and measured in runes, not bytes.
var lengthRanges = []struct {
	Label string
	Lo    int
	Hi    int
}{
	{"0-10", 0, 10},
	{"11-20", 11, 20},
	{"21-30", 21, 30},
	{"31-50", 31, 50},
	{"51-100", 51, 100},
	{"100+", 101, 1<<31 - 1},
}

// LengthBucket is one row of the content length distribution.
type LengthBucket struct {
	Range      string  `json:"range"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ContentLengthStats summarises text lengths across the corpus.
type ContentLengthStats struct {
	TotalCount   int            `json:"total_count"`
	AvgLength    float64        `json:"avg_length"`
	MaxLength    int            `json:"max_length"`
	MinLength    int            `json:"min_length"`
	Distribution []LengthBucket `json:"distribution"`
}

// AnalyzeContentLength buckets entry texts by rune length and reports the
// distribution along with average, maximum and minimum length.
func AnalyzeContentLength(entries []Entry) (*ContentLengthStats, error) {
	if len(entries) == 0 {
		return nil, &EmptyCorpusError{Analysis: "content_length"}
	}

	counts := make([]int, len(lengthRanges))
	stats := &ContentLengthStats{TotalCount: len(entries)}
	total := 0
	for i, e := range entries {
		n := utf8.RuneCountInString(e.Text)
		total += n
		if i == 0 {
			stats.MaxLength = n
			stats.MinLength = n
		} else {
			if n > stats.MaxLength {
				stats.MaxLength = n
			}
			if n < stats.MinLength {
				stats.MinLength = n
			}
		}
		for j, r := range lengthRanges {
			if n >= r.Lo && n <= r.Hi {
				counts[j]++
				break
			}
		}
	}
	stats.AvgLength = float64(total) / float64(len(entries))

	stats.Distribution = make([]LengthBucket, len(lengthRanges))
	for j, r := range lengthRanges {
		stats.Distribution[j] = LengthBucket{
			Range:      r.Label,
			Count:      counts[j],
			Percentage: float64(counts[j]) / float64(len(entries)) * 100,
		}
	}
	return stats, nil
}
