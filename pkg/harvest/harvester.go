package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Reason explains why a harvest stopped.
type Reason string

const (
	// ReasonReachedLimit means the accumulator hit the requested item count.
	ReasonReachedLimit Reason = "reached-limit"
	// ReasonExhausted means the source stopped producing new items for
	// StagnantRounds consecutive iterations.
	ReasonExhausted Reason = "exhausted"
	// ReasonCancelled means the owning task asked to stop.
	ReasonCancelled Reason = "cancelled"
	// ReasonBudget means the iteration ceiling was reached before the limit.
	ReasonBudget Reason = "iteration-budget"
)

// DefaultStagnantRounds is how many consecutive no-growth iterations are
// tolerated before the source is considered exhausted. Three rounds ride out
// transient render delays without false-stopping.
const DefaultStagnantRounds = 3

// Config governs one harvest run.
type Config struct {
	// Limit is the number of distinct items wanted. Must be positive.
	Limit int
	// MaxIterations is the hard ceiling on scroll attempts. Must be positive.
	MaxIterations int
	// Delay is the pause between iterations so lazy content can render.
	Delay time.Duration
	// StagnantRounds overrides DefaultStagnantRounds when positive.
	StagnantRounds int

	Logger *logrus.Entry
}

func (c Config) validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("harvest: limit must be positive, got %d", c.Limit)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("harvest: max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Delay < 0 {
		return fmt.Errorf("harvest: delay must be non-negative, got %v", c.Delay)
	}
	return nil
}

// Result carries the harvested items (truncated to the limit), the stop
// reason and how many iterations ran.
type Result[T any] struct {
	Items      []T
	Reason     Reason
	Iterations int
}

// Harvester drives a snapshot source in a loop, feeding the accumulator and
// applying the termination and stagnation policies.
type Harvester[T any] struct {
	cfg      Config
	acc      *Accumulator[T]
	snapshot func(ctx context.Context) ([]T, error)
	scroll   func(ctx context.Context) error
	progress func(count, iteration int)
	stopped  func() bool
	log      *logrus.Entry
}

// New assembles a harvester. snapshot and scroll are collaborator calls;
// progress and stopped may be nil.
func New[T any](
	cfg Config,
	acc *Accumulator[T],
	snapshot func(ctx context.Context) ([]T, error),
	scroll func(ctx context.Context) error,
	progress func(count, iteration int),
	stopped func() bool,
) (*Harvester[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.StagnantRounds <= 0 {
		cfg.StagnantRounds = DefaultStagnantRounds
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}
	if progress == nil {
		progress = func(int, int) {}
	}
	if stopped == nil {
		stopped = func() bool { return false }
	}
	return &Harvester[T]{
		cfg:      cfg,
		acc:      acc,
		snapshot: snapshot,
		scroll:   scroll,
		progress: progress,
		stopped:  stopped,
		log:      log,
	}, nil
}

// Run executes the harvest loop until one of the termination conditions
// fires. Snapshot and scroll failures surface to the caller, which owns the
// retry policy; everything accumulated so far stays available through the
// accumulator either way.
func (h *Harvester[T]) Run(ctx context.Context) (Result[T], error) {
	var limiter *rate.Limiter
	if h.cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(h.cfg.Delay), 1)
		// Absorb the initial token so the first wait observes the full delay.
		limiter.Allow()
	}

	stagnant := 0
	iteration := 0

	for {
		iteration++

		items, err := h.snapshot(ctx)
		if err != nil {
			return h.result(ReasonCancelled, iteration), fmt.Errorf("snapshot on iteration %d: %w", iteration, err)
		}

		grew := false
		for _, item := range items {
			if h.acc.Offer(item) {
				grew = true
			}
		}

		h.progress(h.acc.Size(), iteration)
		h.log.WithFields(logrus.Fields{
			"iteration": iteration,
			"collected": h.acc.Size(),
			"limit":     h.cfg.Limit,
			"grew":      grew,
		}).Debug("Harvest iteration complete")

		// Termination checks, in precedence order.
		if h.acc.Size() >= h.cfg.Limit {
			return h.result(ReasonReachedLimit, iteration), nil
		}
		if h.stopped() {
			h.log.WithField("iteration", iteration).Info("Harvest cancelled cooperatively")
			return h.result(ReasonCancelled, iteration), nil
		}
		if iteration >= h.cfg.MaxIterations {
			h.log.WithField("iterations", iteration).Info("Harvest iteration budget exhausted")
			return h.result(ReasonBudget, iteration), nil
		}
		if !grew {
			stagnant++
			if stagnant >= h.cfg.StagnantRounds {
				h.log.WithFields(logrus.Fields{
					"iterations": iteration,
					"stagnant":   stagnant,
				}).Info("Source exhausted, stopping early")
				return h.result(ReasonExhausted, iteration), nil
			}
		} else {
			stagnant = 0
		}

		if err := h.scroll(ctx); err != nil {
			return h.result(ReasonCancelled, iteration), fmt.Errorf("scroll on iteration %d: %w", iteration, err)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return h.result(ReasonCancelled, iteration), err
			}
		}
	}
}

func (h *Harvester[T]) result(reason Reason, iterations int) Result[T] {
	items := h.acc.Items()
	if len(items) > h.cfg.Limit {
		items = items[:h.cfg.Limit]
	}
	return Result[T]{Items: items, Reason: reason, Iterations: iterations}
}
