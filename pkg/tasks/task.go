// Package tasks owns the asynchronous collection task lifecycle: identity,
// the status state machine, progress reporting, cooperative stop, and the
// single-flight scheduler that guards the shared browser session.
package tasks

import (
	"time"

	"github.com/liuwen-dev/douyin-harvester/pkg/collector"
)

// Kind selects the collection strategy a task runs.
type Kind string

const (
	// KindKeywordSearch discovers videos for a keyword, ranks them by like
	// count and harvests comments from the top ones.
	KindKeywordSearch Kind = "keyword-search"
	// KindVideoHarvest harvests comments from a single video URL.
	KindVideoHarvest Kind = "video-harvest"
	// KindUserHarvest harvests comments from every video on a user profile.
	KindUserHarvest Kind = "user-harvest"
	// KindSearchCollect collects search result cards into the corpus without
	// harvesting comments.
	KindSearchCollect Kind = "search-collect"
)

// Status is the task state machine:
// pending -> running -> {completed | failed | stopping -> stopped}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopping  Status = "stopping"
	StatusStopped   Status = "stopped"
)

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// Task is a read-only snapshot of one unit of asynchronous work. Snapshots
// are copies; mutating one never affects the manager's state.
type Task struct {
	ID             string            `json:"task_id"`
	Kind           Kind              `json:"kind"`
	Params         Params            `json:"params"`
	Status         Status            `json:"status"`
	Progress       float64           `json:"progress"`
	CollectedCount int               `json:"collected_count"`
	Message        string            `json:"message"`
	Result         *collector.Result `json:"result,omitempty"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	StartedAt      time.Time         `json:"started_at,omitempty"`
	FinishedAt     time.Time         `json:"finished_at,omitempty"`
}
