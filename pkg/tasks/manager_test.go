package tasks_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/liuwen-dev/douyin-harvester/pkg/collector"
	"github.com/liuwen-dev/douyin-harvester/pkg/tasks"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeResource counts acquisitions and can simulate a busy browser.
type fakeResource struct {
	mu       sync.Mutex
	busy     bool
	held     bool
	acquires int
}

func (r *fakeResource) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy || r.held {
		return false
	}
	r.held = true
	r.acquires++
	return true
}

func (r *fakeResource) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.held = false
}

func (r *fakeResource) setBusy(b bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = b
}

func newManager(res *fakeResource) *tasks.Manager {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return tasks.NewManager(res, log)
}

func validVideoParams() tasks.Params {
	return tasks.Params{VideoURL: "https://www.douyin.com/video/1", Limit: 5}
}

// waitTerminal polls until the task leaves the active states.
func waitTerminal(m *tasks.Manager, id string) tasks.Task {
	var task tasks.Task
	Eventually(func() tasks.Status {
		t, err := m.GetStatus(id)
		Expect(err).NotTo(HaveOccurred())
		task = t
		return t.Status
	}, 5*time.Second, 10*time.Millisecond).Should(BeElementOf(
		tasks.StatusCompleted, tasks.StatusFailed, tasks.StatusStopped))
	return task
}

var _ = Describe("Manager", func() {
	var (
		res     *fakeResource
		manager *tasks.Manager
		ctx     context.Context
		cancel  context.CancelFunc
	)

	BeforeEach(func() {
		res = &fakeResource{}
		manager = newManager(res)
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
	})

	Describe("Submit", func() {
		It("rejects unknown kinds", func() {
			_, err := manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			Expect(err).To(HaveOccurred())
		})

		It("validates parameters per kind", func() {
			err := manager.Register(tasks.KindKeywordSearch,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())

			_, err = manager.Submit(tasks.KindKeywordSearch, tasks.Params{})
			var verr *tasks.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Field).To(Equal("keyword"))
		})

		It("rejects out-of-range scroll counts", func() {
			err := manager.Register(tasks.KindKeywordSearch,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())

			_, err = manager.Submit(tasks.KindKeywordSearch, tasks.Params{
				Keyword:     "美食",
				ScrollCount: 5000,
			})
			Expect(err).To(HaveOccurred())
		})

		It("creates pending tasks with generated ids", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())

			id, err := manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(HavePrefix("task_"))

			task, err := manager.GetStatus(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Status).To(Equal(tasks.StatusPending))
		})
	})

	Describe("execution", func() {
		It("completes a task and publishes the result", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(_ context.Context, exec collector.Execution, _ tasks.Params) (*collector.Result, error) {
					exec.Report(50, 2, "halfway")
					return &collector.Result{
						CommentCount: 4,
						Comments: []collector.Comment{
							{Comment: "一"}, {Comment: "二"}, {Comment: "三"}, {Comment: "四"},
						},
					}, nil
				})
			Expect(err).NotTo(HaveOccurred())
			go manager.Run(ctx)

			id, err := manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			Expect(err).NotTo(HaveOccurred())

			task := waitTerminal(manager, id)
			Expect(task.Status).To(Equal(tasks.StatusCompleted))
			Expect(task.Progress).To(Equal(100.0))
			Expect(task.CollectedCount).To(Equal(4))
			Expect(task.Result).NotTo(BeNil())
		})

		It("marks a task failed when the runner errors", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return nil, errors.New("browser crashed")
				})
			Expect(err).NotTo(HaveOccurred())
			go manager.Run(ctx)

			id, _ := manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			task := waitTerminal(manager, id)
			Expect(task.Status).To(Equal(tasks.StatusFailed))
			Expect(task.Error).To(ContainSubstring("browser crashed"))
		})

		It("runs queued tasks one at a time in submission order", func() {
			var order []string
			var mu sync.Mutex
			err := manager.Register(tasks.KindVideoHarvest,
				func(_ context.Context, _ collector.Execution, p tasks.Params) (*collector.Result, error) {
					mu.Lock()
					order = append(order, p.VideoURL)
					mu.Unlock()
					time.Sleep(20 * time.Millisecond)
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())
			go manager.Run(ctx)

			first, _ := manager.Submit(tasks.KindVideoHarvest, tasks.Params{VideoURL: "https://www.douyin.com/video/1"})
			second, _ := manager.Submit(tasks.KindVideoHarvest, tasks.Params{VideoURL: "https://www.douyin.com/video/2"})

			waitTerminal(manager, first)
			waitTerminal(manager, second)

			mu.Lock()
			defer mu.Unlock()
			Expect(order).To(Equal([]string{
				"https://www.douyin.com/video/1",
				"https://www.douyin.com/video/2",
			}))
		})

		It("waits for the browser instead of failing when it is busy", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())
			res.setBusy(true)
			go manager.Run(ctx)

			id, _ := manager.Submit(tasks.KindVideoHarvest, validVideoParams())

			Consistently(func() tasks.Status {
				t, _ := manager.GetStatus(id)
				return t.Status
			}, 100*time.Millisecond, 20*time.Millisecond).Should(Equal(tasks.StatusPending))

			res.setBusy(false)
			task := waitTerminal(manager, id)
			Expect(task.Status).To(Equal(tasks.StatusCompleted))
		})

		It("transitions through stopping to stopped on request", func() {
			started := make(chan struct{})
			err := manager.Register(tasks.KindVideoHarvest,
				func(_ context.Context, exec collector.Execution, _ tasks.Params) (*collector.Result, error) {
					close(started)
					for !exec.Stopped() {
						time.Sleep(5 * time.Millisecond)
					}
					return &collector.Result{CommentCount: 1}, nil
				})
			Expect(err).NotTo(HaveOccurred())
			go manager.Run(ctx)

			id, _ := manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			Eventually(started, time.Second).Should(BeClosed())

			Expect(manager.RequestStop(id)).To(Succeed())
			task := waitTerminal(manager, id)
			Expect(task.Status).To(Equal(tasks.StatusStopped))
		})

		It("returns not-found for unknown task ids", func() {
			_, err := manager.GetStatus("task_nope")
			var nf *tasks.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())

			Expect(errors.As(manager.RequestStop("task_nope"), &nf)).To(BeTrue())
		})

		It("treats stopping a finished task as a no-op", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())
			go manager.Run(ctx)

			id, _ := manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			waitTerminal(manager, id)

			Expect(manager.RequestStop(id)).To(Succeed())
			task, _ := manager.GetStatus(id)
			Expect(task.Status).To(Equal(tasks.StatusCompleted))
		})
	})

	Describe("RunDirect", func() {
		It("waits for the terminal snapshot", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{CommentCount: 2}, nil
				})
			Expect(err).NotTo(HaveOccurred())
			go manager.Run(ctx)

			task, err := manager.RunDirect(ctx, tasks.KindVideoHarvest, validVideoParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Status).To(Equal(tasks.StatusCompleted))
			Expect(task.Result.CommentCount).To(Equal(2))
		})
	})

	Describe("retention", func() {
		It("sweeps terminal tasks after the retention window", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())
			manager.SetRetention(50 * time.Millisecond)
			go manager.Run(ctx)

			id, _ := manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			waitTerminal(manager, id)

			Eventually(func() error {
				_, err := manager.GetStatus(id)
				return err
			}, 5*time.Second, 50*time.Millisecond).Should(HaveOccurred())
		})
	})

	Describe("Tasks", func() {
		It("lists retained tasks", func() {
			err := manager.Register(tasks.KindVideoHarvest,
				func(context.Context, collector.Execution, tasks.Params) (*collector.Result, error) {
					return &collector.Result{}, nil
				})
			Expect(err).NotTo(HaveOccurred())

			manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			manager.Submit(tasks.KindVideoHarvest, validVideoParams())
			Expect(manager.Tasks()).To(HaveLen(2))
		})
	})
})
