package corpus_test

import (
	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/corpus"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newStore() *corpus.Store {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return corpus.NewStore(log, nil)
}

var _ = Describe("Store", func() {
	var store *corpus.Store

	BeforeEach(func() {
		store = newStore()
	})

	It("dedups videos by normalized URL and keeps the fresher copy", func() {
		added := store.AddVideos([]browser.VideoCard{
			{VideoURL: "/video/1", Likes: "10"},
			{VideoURL: "https://www.douyin.com/video/1", Likes: "99"},
			{VideoURL: "/video/2", Likes: "5"},
		}, "测试")

		Expect(added).To(Equal(2))
		videos := store.Videos()
		Expect(videos).To(HaveLen(2))
		Expect(videos[0].Likes).To(Equal("99"))
	})

	It("ignores cards without a URL", func() {
		Expect(store.AddVideos([]browser.VideoCard{{Title: "无链接"}}, "")).To(BeZero())
	})

	It("accumulates across calls and reports counts", func() {
		store.AddVideos([]browser.VideoCard{{VideoURL: "/video/1"}}, "a")
		store.AddVideos([]browser.VideoCard{{VideoURL: "/video/2"}}, "b")
		store.AddUsers([]browser.UserCard{{UserLink: "/user/x", Title: "某人"}}, "a")

		videos, users := store.Counts()
		Expect(videos).To(Equal(2))
		Expect(users).To(Equal(1))
	})

	It("dedups users by link with title fallback", func() {
		added := store.AddUsers([]browser.UserCard{
			{UserLink: "/user/a", Title: "甲"},
			{UserLink: "https://www.douyin.com/user/a", Title: "甲新"},
			{Title: "无链接账号"},
			{Title: "无链接账号"},
		}, "")

		Expect(added).To(Equal(2))
		Expect(store.Users()).To(HaveLen(2))
	})

	It("clears everything on reset", func() {
		store.AddVideos([]browser.VideoCard{{VideoURL: "/video/1"}}, "")
		store.AddUsers([]browser.UserCard{{UserLink: "/user/a", Title: "x"}}, "")

		store.Reset()

		videos, users := store.Counts()
		Expect(videos).To(BeZero())
		Expect(users).To(BeZero())
	})

	It("starts counting fresh after a reset", func() {
		store.AddVideos([]browser.VideoCard{{VideoURL: "/video/1"}}, "")
		store.Reset()
		added := store.AddVideos([]browser.VideoCard{{VideoURL: "/video/1"}}, "")
		Expect(added).To(Equal(1))
	})

	It("returns copies that do not alias internal state", func() {
		store.AddVideos([]browser.VideoCard{{VideoURL: "/video/1", Title: "原题"}}, "")
		videos := store.Videos()
		videos[0].Title = "改了"
		Expect(store.Videos()[0].Title).To(Equal("原题"))
	})
})
