package tasks

import (
	"fmt"
	"time"
)

// Params is the immutable request snapshot a task carries. Which fields are
// required depends on the kind; Validate enforces the per-kind constraints.
type Params struct {
	Keyword       string  `json:"keyword,omitempty"`
	SearchType    string  `json:"search_type,omitempty"` // "video" or "user"
	VideoURL      string  `json:"video_url,omitempty"`
	UserInput     string  `json:"user_input,omitempty"`
	ScrollCount   int     `json:"scroll_count,omitempty"`
	DelaySeconds  float64 `json:"delay,omitempty"`
	Limit         int     `json:"limit,omitempty"`
	MaxVideos     int     `json:"max_videos,omitempty"`
	PerVideoLimit int     `json:"per_video_limit,omitempty"`
}

// Delay returns the scroll delay as a duration.
func (p Params) Delay() time.Duration {
	return time.Duration(p.DelaySeconds * float64(time.Second))
}

// withDefaults fills unset numeric fields with the per-kind defaults.
func (p Params) withDefaults(kind Kind) Params {
	if p.DelaySeconds == 0 {
		p.DelaySeconds = 2.0
	}
	if p.ScrollCount == 0 {
		switch kind {
		case KindKeywordSearch:
			p.ScrollCount = 80
		default:
			p.ScrollCount = 100
		}
	}
	if p.Limit == 0 {
		p.Limit = 50
	}
	if p.MaxVideos == 0 {
		p.MaxVideos = 10
	}
	if p.PerVideoLimit == 0 {
		p.PerVideoLimit = 50
	}
	if p.SearchType == "" {
		p.SearchType = "video"
	}
	return p
}

// ValidationError rejects bad request parameters before a task is created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NotFoundError signals an unknown task id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

func requireRange(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d, got %d", lo, hi, v)}
	}
	return nil
}

func requireFloatRange(field string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %g and %g, got %g", lo, hi, v)}
	}
	return nil
}

func requireNonEmpty(field, v string) error {
	if v == "" {
		return &ValidationError{Field: field, Message: "must not be empty"}
	}
	return nil
}

// Validate checks the parameters against the kind's constraints.
func (p Params) Validate(kind Kind) error {
	if err := requireFloatRange("delay", p.DelaySeconds, 0.5, 10); err != nil {
		return err
	}

	switch kind {
	case KindKeywordSearch:
		if err := requireNonEmpty("keyword", p.Keyword); err != nil {
			return err
		}
		if err := requireRange("scroll_count", p.ScrollCount, 1, 1000); err != nil {
			return err
		}
		if err := requireRange("max_videos", p.MaxVideos, 1, 50); err != nil {
			return err
		}
		return requireRange("per_video_limit", p.PerVideoLimit, 1, 500)

	case KindVideoHarvest:
		if err := requireNonEmpty("video_url", p.VideoURL); err != nil {
			return err
		}
		return requireRange("limit", p.Limit, 1, 500)

	case KindUserHarvest:
		if err := requireNonEmpty("user_input", p.UserInput); err != nil {
			return err
		}
		if err := requireRange("scroll_count", p.ScrollCount, 1, 500); err != nil {
			return err
		}
		return requireRange("per_video_limit", p.PerVideoLimit, 1, 500)

	case KindSearchCollect:
		if err := requireNonEmpty("keyword", p.Keyword); err != nil {
			return err
		}
		if p.SearchType != "video" && p.SearchType != "user" {
			return &ValidationError{Field: "search_type", Message: `must be "video" or "user"`}
		}
		return requireRange("scroll_count", p.ScrollCount, 1, 1000)

	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown task kind %q", kind)}
	}
}
