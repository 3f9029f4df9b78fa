package analysis_test

import (
	"errors"
	"strings"

	"github.com/liuwen-dev/douyin-harvester/pkg/analysis"
	"github.com/liuwen-dev/douyin-harvester/pkg/browser"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AnalyzeInteraction", func() {
	It("computes totals over parseable counters only", func() {
		entries := []analysis.Entry{
			{Likes: "10"},
			{Likes: "N/A"},
			{Likes: "30"},
		}

		stats, err := analysis.AnalyzeInteraction(entries)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalCount).To(Equal(3))
		Expect(stats.ParsedCount).To(Equal(2))
		Expect(stats.TotalLikes).To(Equal(int64(40)))
		Expect(stats.AvgLikes).To(Equal(20.0))
		Expect(stats.MaxLikes).To(Equal(int64(30)))
		Expect(stats.MinLikes).To(Equal(int64(10)))
	})

	It("scales 万 counters", func() {
		stats, err := analysis.AnalyzeInteraction([]analysis.Entry{{Likes: "1.5万"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalLikes).To(Equal(int64(15000)))
	})

	It("rejects an empty corpus", func() {
		_, err := analysis.AnalyzeInteraction(nil)
		var empty *analysis.EmptyCorpusError
		Expect(errors.As(err, &empty)).To(BeTrue())
	})

	It("leaves the arithmetic zero when nothing parses", func() {
		stats, err := analysis.AnalyzeInteraction([]analysis.Entry{{Likes: "N/A"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalCount).To(Equal(1))
		Expect(stats.ParsedCount).To(BeZero())
		Expect(stats.AvgLikes).To(BeZero())
	})
})

var _ = Describe("AnalyzeContentLength", func() {
	It("buckets texts by rune length", func() {
		entries := []analysis.Entry{
			{Text: strings.Repeat("短", 5)},
			{Text: strings.Repeat("中", 15)},
			{Text: strings.Repeat("长", 120)},
			{Text: strings.Repeat("中", 15)},
		}

		stats, err := analysis.AnalyzeContentLength(entries)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalCount).To(Equal(4))
		Expect(stats.MaxLength).To(Equal(120))
		Expect(stats.MinLength).To(Equal(5))

		byRange := map[string]analysis.LengthBucket{}
		for _, b := range stats.Distribution {
			byRange[b.Range] = b
		}
		Expect(byRange["0-10"].Count).To(Equal(1))
		Expect(byRange["11-20"].Count).To(Equal(2))
		Expect(byRange["11-20"].Percentage).To(Equal(50.0))
		Expect(byRange["100+"].Count).To(Equal(1))
		Expect(byRange["21-30"].Count).To(BeZero())
	})

	It("measures Chinese text in runes, not bytes", func() {
		stats, err := analysis.AnalyzeContentLength([]analysis.Entry{{Text: "四个汉字"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.MaxLength).To(Equal(4))
	})

	It("rejects an empty corpus", func() {
		_, err := analysis.AnalyzeContentLength(nil)
		var empty *analysis.EmptyCorpusError
		Expect(errors.As(err, &empty)).To(BeTrue())
	})
})

var _ = Describe("AnalyzeKeywords", func() {
	It("counts segmented words and ranks by frequency", func() {
		entries := []analysis.Entry{
			{Text: "美食 美食 旅行"},
			{Text: "美食"},
		}

		stats, err := analysis.AnalyzeKeywords(entries, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalTexts).To(Equal(2))
		Expect(stats.TopKeywords).NotTo(BeEmpty())
		Expect(stats.TopKeywords[0].Word).To(Equal("美食"))
		Expect(stats.TopKeywords[0].Count).To(Equal(3))
		Expect(stats.TopKeywords[0].Rank).To(Equal(1))
	})

	It("drops stop words and single characters", func() {
		stats, err := analysis.AnalyzeKeywords([]analysis.Entry{{Text: "我们 的 了 旅行"}}, 10)
		Expect(err).NotTo(HaveOccurred())
		for _, kw := range stats.TopKeywords {
			Expect(kw.Word).NotTo(Equal("我们"))
			Expect(kw.Word).NotTo(Equal("的"))
		}
	})

	It("caps the ranking at topN", func() {
		stats, err := analysis.AnalyzeKeywords([]analysis.Entry{
			{Text: "苹果 香蕉 橘子 葡萄 西瓜"},
		}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(stats.TopKeywords)).To(BeNumerically("<=", 2))
	})

	It("rejects an empty corpus", func() {
		_, err := analysis.AnalyzeKeywords(nil, 10)
		var empty *analysis.EmptyCorpusError
		Expect(errors.As(err, &empty)).To(BeTrue())
	})
})

var _ = Describe("Entry projection", func() {
	It("projects video cards onto title and likes", func() {
		entries := analysis.VideoEntries([]browser.VideoCard{
			{Title: "一条视频", Likes: "88"},
		})
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Text).To(Equal("一条视频"))
		Expect(entries[0].Likes).To(Equal("88"))
	})

	It("projects user cards onto title and likes", func() {
		entries := analysis.UserEntries([]browser.UserCard{
			{Title: "一个账号", Likes: "1万"},
		})
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Likes).To(Equal("1万"))
	})
})
