package harvest_test

import (
	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/harvest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Accumulator", func() {
	var acc *harvest.Accumulator[string]

	BeforeEach(func() {
		acc = harvest.NewAccumulator[string](harvest.CommentKey)
	})

	It("keeps first occurrences in insertion order across snapshots", func() {
		for _, s := range []string{"a", "a", "b"} {
			acc.Offer(s)
		}
		for _, s := range []string{"b", "c"} {
			acc.Offer(s)
		}

		Expect(acc.Items()).To(Equal([]string{"a", "b", "c"}))
		Expect(acc.Size()).To(Equal(3))
	})

	It("reports whether an offer added a new item", func() {
		Expect(acc.Offer("hello")).To(BeTrue())
		Expect(acc.Offer("hello")).To(BeFalse())
	})

	It("treats whitespace variants as the same comment", func() {
		Expect(acc.Offer("nice  video")).To(BeTrue())
		Expect(acc.Offer(" nice video ")).To(BeFalse())
		Expect(acc.Items()).To(Equal([]string{"nice  video"}))
	})

	It("rejects empty and whitespace-only comments", func() {
		Expect(acc.Offer("")).To(BeFalse())
		Expect(acc.Offer("   ")).To(BeFalse())
		Expect(acc.Size()).To(BeZero())
	})

	It("tracks remaining capacity against a limit", func() {
		acc.Offer("a")
		acc.Offer("b")
		Expect(acc.Remaining(5)).To(Equal(3))
		Expect(acc.Remaining(2)).To(BeZero())
		Expect(acc.Remaining(1)).To(BeZero())
	})

	It("returns a copy of the collected items", func() {
		acc.Offer("a")
		items := acc.Items()
		items[0] = "mutated"
		Expect(acc.Items()).To(Equal([]string{"a"}))
	})
})

var _ = Describe("TargetKey", func() {
	It("dedups scheme-relative and path-only forms of the same video", func() {
		acc := harvest.NewAccumulator[browser.VideoCard](harvest.TargetKey)

		Expect(acc.Offer(browser.VideoCard{VideoURL: "https://www.douyin.com/video/123"})).To(BeTrue())
		Expect(acc.Offer(browser.VideoCard{VideoURL: "//www.douyin.com/video/123"})).To(BeFalse())
		Expect(acc.Offer(browser.VideoCard{VideoURL: "/video/123"})).To(BeFalse())
	})

	It("rejects cards without a URL", func() {
		acc := harvest.NewAccumulator[browser.VideoCard](harvest.TargetKey)
		Expect(acc.Offer(browser.VideoCard{Title: "no link"})).To(BeFalse())
	})
})

var _ = Describe("UserKey", func() {
	It("dedups by profile link and falls back to the title", func() {
		acc := harvest.NewAccumulator[browser.UserCard](harvest.UserKey)

		Expect(acc.Offer(browser.UserCard{UserLink: "/user/abc", Title: "one"})).To(BeTrue())
		Expect(acc.Offer(browser.UserCard{UserLink: "https://www.douyin.com/user/abc", Title: "two"})).To(BeFalse())
		Expect(acc.Offer(browser.UserCard{Title: "untitled account"})).To(BeTrue())
		Expect(acc.Offer(browser.UserCard{Title: "untitled account"})).To(BeFalse())
	})
})
