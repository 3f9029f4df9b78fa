package analysis

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-ego/gse"
)

// DefaultTopN bounds how many keywords an analysis reports.
const DefaultTopN = 100

// stopWords are Chinese function words excluded from keyword counting.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		"的", "了", "是", "在", "我", "有", "和", "就", "都", "而", "及", "与", "着", "或", "等", "为",
		"一个", "没有", "这个", "那个", "但是", "而且", "只是", "不过", "这样", "一样", "一直", "一些",
		"这", "那", "也", "你", "我们", "他们", "它们", "把", "被", "让", "向", "往", "但", "去", "又",
		"能", "好", "给", "到", "看", "想", "要", "会", "多", "这些", "那些", "什么", "怎么", "如何",
		"为什么", "可以", "因为", "所以", "应该", "可能",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

var (
	segOnce sync.Once
	segErr  error
	seg     gse.Segmenter
)

// segmenter lazily loads the embedded dictionary. Loading takes a moment, so
// it happens once on first analysis rather than at process start.
func segmenter() (*gse.Segmenter, error) {
	segOnce.Do(func() {
		segErr = seg.LoadDict()
	})
	if segErr != nil {
		return nil, segErr
	}
	return &seg, nil
}

// Keyword is one ranked row of the frequency table.
type Keyword struct {
	Rank      int     `json:"rank"`
	Word      string  `json:"word"`
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"`
}

// KeywordStats is the keyword frequency report over a corpus.
type KeywordStats struct {
	TotalTexts  int       `json:"total_texts"`
	TotalWords  int       `json:"total_words"`
	UniqueWords int       `json:"unique_words"`
	TopKeywords []Keyword `json:"top_keywords"`
}

// AnalyzeKeywords segments entry texts, drops stop words and single
// characters, and returns the topN words by count. Ties keep the order in
// which the words first appeared in the corpus.
func AnalyzeKeywords(entries []Entry, topN int) (*KeywordStats, error) {
	if len(entries) == 0 {
		return nil, &EmptyCorpusError{Analysis: "keywords"}
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	sg, err := segmenter()
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	totalWords := 0
	for _, word := range sg.Cut(strings.Join(texts, " "), true) {
		word = strings.TrimSpace(word)
		if utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		if _, ok := firstSeen[word]; !ok {
			firstSeen[word] = totalWords
		}
		counts[word]++
		totalWords++
	}

	ranked := make([]string, 0, len(counts))
	for w := range counts {
		ranked = append(ranked, w)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	stats := &KeywordStats{
		TotalTexts:  len(entries),
		TotalWords:  totalWords,
		UniqueWords: len(counts),
		TopKeywords: make([]Keyword, 0, len(ranked)),
	}
	for i, w := range ranked {
		freq := 0.0
		if totalWords > 0 {
			freq = float64(counts[w]) / float64(totalWords) * 100
		}
		stats.TopKeywords = append(stats.TopKeywords, Keyword{
			Rank:      i + 1,
			Word:      w,
			Count:     counts[w],
			Frequency: freq,
		})
	}
	return stats, nil
}
