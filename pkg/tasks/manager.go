package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/liuwen-dev/douyin-harvester/pkg/browser"
	"github.com/liuwen-dev/douyin-harvester/pkg/collector"
)

// Runner executes one task kind. The manager hands it a live Execution for
// progress reporting and stop checks; the runner returns the final payload,
// which may be partial when it also returns an error.
type Runner func(ctx context.Context, exec collector.Execution, p Params) (*collector.Result, error)

// DefaultRetention is how long terminal tasks stay queryable before the
// sweep removes them.
const DefaultRetention = time.Hour

// record is the manager-private mutable task state.
type record struct {
	task Task
	stop atomic.Bool
}

// Manager owns the task registry and the single-flight scheduler. Exactly
// one task runs at a time because the browser session cannot safely serve
// two scraping contexts; that exclusivity lives here and nowhere else.
type Manager struct {
	logger    *logrus.Logger
	resource  browser.Resource
	retention time.Duration

	mu      sync.RWMutex
	runners map[Kind]Runner
	tasks   map[string]*record
	queue   []string // pending task ids, FIFO
	running string   // id of the task currently holding the browser

	wake chan struct{}
}

func NewManager(resource browser.Resource, logger *logrus.Logger) *Manager {
	return &Manager{
		logger:    logger,
		resource:  resource,
		retention: DefaultRetention,
		runners:   make(map[Kind]Runner),
		tasks:     make(map[string]*record),
		wake:      make(chan struct{}, 1),
	}
}

// SetRetention overrides how long terminal tasks are kept.
func (m *Manager) SetRetention(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retention = d
}

// Register binds a runner to a task kind. Registering the same kind twice is
// a programming error.
func (m *Manager) Register(kind Kind, runner Runner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runners[kind]; exists {
		return fmt.Errorf("runner for kind %s already registered", kind)
	}
	m.runners[kind] = runner
	return nil
}

// newTaskID generates a collision-safe id: readable timestamp plus a random
// suffix so rapid submissions in the same second stay distinct.
func newTaskID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("task_%s_%s", time.Now().Format("20060102_150405"), suffix)
}

// Submit validates params, creates a pending task and enqueues it.
func (m *Manager) Submit(kind Kind, params Params) (string, error) {
	params = params.withDefaults(kind)
	if err := params.Validate(kind); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runners[kind]; !ok {
		return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("no runner registered for %q", kind)}
	}

	id := newTaskID()
	m.tasks[id] = &record{task: Task{
		ID:        id,
		Kind:      kind,
		Params:    params,
		Status:    StatusPending,
		Message:   "queued",
		CreatedAt: time.Now(),
	}}
	m.queue = append(m.queue, id)

	m.logger.WithFields(logrus.Fields{
		"task_id": id,
		"kind":    kind,
		"queued":  len(m.queue),
	}).Info("Task submitted")

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return id, nil
}

// GetStatus returns a snapshot of the task. Reads never block on a running
// task's progress.
func (m *Manager) GetStatus(id string) (Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tasks[id]
	if !ok {
		return Task{}, &NotFoundError{ID: id}
	}
	return rec.task, nil
}

// Tasks returns snapshots of every retained task, newest first.
func (m *Manager) Tasks() []Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Task, 0, len(m.tasks))
	for _, rec := range m.tasks {
		out = append(out, rec.task)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// RequestStop asks a running task to stop cooperatively. The harvester
// observes the flag at iteration boundaries, so stopping takes up to one
// iteration. No-op when the task is not running.
func (m *Manager) RequestStop(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.tasks[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if rec.task.Status != StatusRunning {
		return nil
	}
	rec.stop.Store(true)
	rec.task.Status = StatusStopping
	rec.task.Message = "stop requested"
	m.logger.WithField("task_id", id).Info("Stop requested")
	return nil
}

// Run drives the scheduler until ctx is cancelled. One task executes at a
// time; the ticker doubles as the retention sweep trigger and retries
// requeued tasks.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	m.logger.Info("Task manager started")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Task manager stopping")
			return ctx.Err()
		case <-m.wake:
		case <-ticker.C:
		}
		m.sweep()
		m.runNext(ctx)
	}
}

// runNext performs one scheduler step: dequeue the oldest pending task,
// acquire the browser, execute its strategy. When the resource cannot be
// acquired the task goes back to the head of the queue rather than failing.
func (m *Manager) runNext(ctx context.Context) {
	m.mu.Lock()
	if m.running != "" || len(m.queue) == 0 {
		m.mu.Unlock()
		return
	}

	id := m.queue[0]
	m.queue = m.queue[1:]
	rec, ok := m.tasks[id]
	if !ok || rec.task.Status != StatusPending {
		// Swept or already handled; skip.
		m.mu.Unlock()
		return
	}

	if !m.resource.TryAcquire() {
		m.queue = append([]string{id}, m.queue...)
		m.mu.Unlock()
		m.logger.WithField("task_id", id).Debug("Browser busy, task requeued")
		return
	}

	runner := m.runners[rec.task.Kind]
	rec.task.Status = StatusRunning
	rec.task.StartedAt = time.Now()
	rec.task.Message = "starting collection"
	m.running = id
	params := rec.task.Params
	m.mu.Unlock()

	defer m.resource.Release()

	log := m.logger.WithFields(logrus.Fields{"task_id": id, "kind": rec.task.Kind})
	log.Info("Task started")

	result, err := runner(ctx, &execution{m: m, rec: rec}, params)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = ""

	rec.task.FinishedAt = time.Now()
	rec.task.Result = result

	switch {
	case rec.stop.Load():
		rec.task.Status = StatusStopped
		rec.task.Message = "collection stopped"
		log.WithField("collected", rec.task.CollectedCount).Info("Task stopped")
	case err != nil:
		rec.task.Status = StatusFailed
		rec.task.Error = err.Error()
		rec.task.Message = fmt.Sprintf("collection failed: %v", err)
		log.WithError(err).Error("Task failed")
	default:
		rec.task.Status = StatusCompleted
		rec.task.Progress = 100
		if result != nil {
			if rec.task.Kind == KindSearchCollect {
				rec.task.CollectedCount = result.VideoCount + result.UserCount
			} else {
				rec.task.CollectedCount = result.CommentCount
			}
		}
		log.WithField("collected", rec.task.CollectedCount).Info("Task completed")
	}
}

// sweep drops terminal tasks older than the retention window.
func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-m.retention)
	for id, rec := range m.tasks {
		if rec.task.Status.Terminal() && rec.task.FinishedAt.Before(cutoff) {
			delete(m.tasks, id)
		}
	}
}

// RunDirect is the synchronous convenience used by one-shot request
// handlers: submit, poll until terminal, return the final snapshot.
func (m *Manager) RunDirect(ctx context.Context, kind Kind, params Params) (Task, error) {
	id, err := m.Submit(kind, params)
	if err != nil {
		return Task{}, err
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Caller gave up; ask the task to stop so the browser frees up.
			_ = m.RequestStop(id)
			return Task{}, ctx.Err()
		case <-ticker.C:
			task, err := m.GetStatus(id)
			if err != nil {
				return Task{}, err
			}
			if task.Status.Terminal() {
				return task, nil
			}
		}
	}
}

// execution adapts a record to the strategy-facing Execution interface.
type execution struct {
	m   *Manager
	rec *record
}

// Report publishes progress. Progress is clamped monotonic so nested
// harvester phases can never move the bar backwards.
func (e *execution) Report(progress float64, collected int, message string) {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	if e.rec.task.Status.Terminal() {
		return
	}
	if progress > e.rec.task.Progress {
		e.rec.task.Progress = progress
	}
	if collected > e.rec.task.CollectedCount {
		e.rec.task.CollectedCount = collected
	}
	if message != "" {
		e.rec.task.Message = message
	}
}

func (e *execution) Stopped() bool {
	return e.rec.stop.Load()
}
