package harvest_test

import (
	"context"
	"errors"

	"github.com/liuwen-dev/douyin-harvester/pkg/harvest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeSource yields one new item per round until its script runs out, then
// keeps returning the full set so further rounds add nothing.
type fakeSource struct {
	script []string
	round  int
}

func (f *fakeSource) snapshot(context.Context) ([]string, error) {
	n := f.round
	if n > len(f.script) {
		n = len(f.script)
	}
	return f.script[:n], nil
}

func (f *fakeSource) scroll(context.Context) error {
	return nil
}

func newHarvester(cfg harvest.Config, src *fakeSource, stopped func() bool) *harvest.Harvester[string] {
	acc := harvest.NewAccumulator[string](harvest.CommentKey)
	snapshot := func(ctx context.Context) ([]string, error) {
		src.round++
		return src.snapshot(ctx)
	}
	h, err := harvest.New(cfg, acc, snapshot, src.scroll, nil, stopped)
	Expect(err).NotTo(HaveOccurred())
	return h
}

var _ = Describe("Harvester", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("stops when the limit is reached and truncates to it", func() {
		src := &fakeSource{script: []string{"a", "b", "c", "d", "e"}}
		h := newHarvester(harvest.Config{Limit: 3, MaxIterations: 100}, src, nil)

		res, err := h.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Reason).To(Equal(harvest.ReasonReachedLimit))
		Expect(res.Items).To(Equal([]string{"a", "b", "c"}))
	})

	It("declares exhaustion after three stagnant rounds", func() {
		// Two unique items against a limit of five: a growth round for
		// each item, then three rounds without growth.
		src := &fakeSource{script: []string{"a", "b"}}
		h := newHarvester(harvest.Config{Limit: 5, MaxIterations: 100}, src, nil)

		res, err := h.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Reason).To(Equal(harvest.ReasonExhausted))
		Expect(res.Items).To(Equal([]string{"a", "b"}))
		Expect(res.Iterations).To(Equal(5))
	})

	It("resets the stagnation counter whenever a round grows", func() {
		// Rounds: grow, stall, stall, grow (script jumps), stall x3.
		rounds := [][]string{
			{"a"},
			{"a"},
			{"a"},
			{"a", "b"},
			{"a", "b"},
			{"a", "b"},
			{"a", "b"},
		}
		i := 0
		acc := harvest.NewAccumulator[string](harvest.CommentKey)
		snapshot := func(context.Context) ([]string, error) {
			r := rounds[i]
			if i < len(rounds)-1 {
				i++
			}
			return r, nil
		}
		h, err := harvest.New(harvest.Config{Limit: 10, MaxIterations: 100}, acc,
			snapshot, func(context.Context) error { return nil }, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		res, err := h.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Reason).To(Equal(harvest.ReasonExhausted))
		Expect(res.Iterations).To(Equal(7))
	})

	It("honors the iteration budget before exhaustion can trigger", func() {
		src := &fakeSource{script: []string{"a", "b"}}
		h := newHarvester(harvest.Config{Limit: 5, MaxIterations: 3}, src, nil)

		res, err := h.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Reason).To(Equal(harvest.ReasonBudget))
		Expect(res.Iterations).To(Equal(3))
	})

	It("stops cooperatively and keeps the partial result", func() {
		src := &fakeSource{script: []string{"a", "b", "c", "d"}}
		calls := 0
		stopped := func() bool {
			calls++
			return calls >= 2
		}
		h := newHarvester(harvest.Config{Limit: 10, MaxIterations: 100}, src, stopped)

		res, err := h.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Reason).To(Equal(harvest.ReasonCancelled))
		Expect(res.Items).To(Equal([]string{"a", "b"}))
	})

	It("surfaces snapshot errors with the partial result intact", func() {
		acc := harvest.NewAccumulator[string](harvest.CommentKey)
		round := 0
		snapshot := func(context.Context) ([]string, error) {
			round++
			if round >= 2 {
				return nil, errors.New("page crashed")
			}
			return []string{"a"}, nil
		}
		h, err := harvest.New(harvest.Config{Limit: 10, MaxIterations: 100}, acc,
			snapshot, func(context.Context) error { return nil }, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		res, err := h.Run(ctx)
		Expect(err).To(MatchError(ContainSubstring("page crashed")))
		Expect(res.Items).To(Equal([]string{"a"}))
	})

	It("reports progress with the running count and iteration", func() {
		acc := harvest.NewAccumulator[string](harvest.CommentKey)
		var counts []int
		progress := func(count, iteration int) {
			counts = append(counts, count)
		}
		src := &fakeSource{script: []string{"a", "b", "c"}}
		snapshot := func(ctx context.Context) ([]string, error) {
			src.round++
			return src.snapshot(ctx)
		}
		h, err := harvest.New(harvest.Config{Limit: 3, MaxIterations: 100}, acc,
			snapshot, src.scroll, progress, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = h.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts).To(Equal([]int{1, 2, 3}))
	})

	It("rejects a non-positive limit", func() {
		acc := harvest.NewAccumulator[string](harvest.CommentKey)
		_, err := harvest.New(harvest.Config{Limit: 0, MaxIterations: 10}, acc,
			func(context.Context) ([]string, error) { return nil, nil },
			func(context.Context) error { return nil }, nil, nil)
		Expect(err).To(HaveOccurred())
	})
})
