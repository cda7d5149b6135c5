// Package eventstore is the build journal: an append-only SQLite log of
// pipeline runs, folded into a build history on read.
package eventstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Build statuses.
const (
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
)

// BuildSummary describes one pipeline run.
type BuildSummary struct {
	BuildID      string            `json:"build_id"`
	Pipeline     string            `json:"pipeline"`
	Trigger      string            `json:"trigger,omitempty"`
	Status       string            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Duration     time.Duration     `json:"duration,omitempty"`
	ErrorStage   string            `json:"error_stage,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
}

// Done reports whether the run finished, successfully or not.
func (s *BuildSummary) Done() bool { return s.CompletedAt != nil }

// History folds journal events into build summaries.
type History struct {
	builds map[string]*BuildSummary
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{builds: make(map[string]*BuildSummary)}
}

// Fold builds a history from events in append order.
func Fold[E Event](events []E) *History {
	h := NewHistory()
	for _, e := range events {
		h.Apply(e)
	}
	return h
}

// Apply folds one event into the history. Events without a build ID are
// ignored.
func (h *History) Apply(e Event) {
	id := e.BuildID()
	if id == "" {
		return
	}
	s, ok := h.builds[id]
	if !ok {
		s = &BuildSummary{BuildID: id, Status: StatusRunning, StartedAt: e.Timestamp(), Details: map[string]string{}}
		h.builds[id] = s
	}

	switch e.Type() {
	case TypeBuildStarted:
		var p BuildStarted
		if json.Unmarshal(e.Payload(), &p) == nil {
			s.Pipeline, s.Trigger = p.Pipeline, p.Trigger
		}
		s.StartedAt = e.Timestamp()
	case TypeBuildCompleted:
		var p BuildCompleted
		s.Status = StatusSuccess
		if json.Unmarshal(e.Payload(), &p) == nil && p.Status != "" {
			s.Status = p.Status
		}
		s.complete(e.Timestamp())
	case TypeBuildFailed:
		var p BuildFailed
		if json.Unmarshal(e.Payload(), &p) == nil {
			s.ErrorStage, s.ErrorMessage = p.Stage, p.Error
		}
		s.Status = StatusFailed
		s.complete(e.Timestamp())
	default:
		// Step events contribute their fields as details.
		var fields map[string]any
		if json.Unmarshal(e.Payload(), &fields) == nil {
			for k, v := range fields {
				s.Details[k] = detailString(v)
			}
		}
	}
}

func (s *BuildSummary) complete(at time.Time) {
	s.CompletedAt = &at
	s.Duration = at.Sub(s.StartedAt)
}

func detailString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprint(v)
	default:
		raw, _ := json.Marshal(v)
		return string(raw)
	}
}

// Recent returns up to limit builds, newest first. limit <= 0 returns all.
func (h *History) Recent(limit int) []*BuildSummary {
	out := make([]*BuildSummary, 0, len(h.builds))
	for _, s := range h.builds {
		cp := *s
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].BuildID > out[j].BuildID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Build returns the summary of one run.
func (h *History) Build(id string) (*BuildSummary, bool) {
	s, ok := h.builds[id]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// LastCompleted returns the newest finished run of pipeline, or of any
// pipeline when pipeline is empty.
func (h *History) LastCompleted(pipeline string) *BuildSummary {
	for _, s := range h.Recent(0) {
		if s.Done() && (pipeline == "" || s.Pipeline == pipeline) {
			return s
		}
	}
	return nil
}
