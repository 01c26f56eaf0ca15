// Package regwatch is the service layer of the regulatory-watch admin
// dashboard. It fronts the remote fetch backend (the engine that actually
// fetches policy-document sources and records detected changes) and owns the
// manual trigger orchestration: single triggers, confirmed sequential sweeps,
// the persisted trigger log, and outcome reporting.
package regwatch

import (
	"github.com/hazyhaar/regwatch/regwatch/internal/remote"
	"github.com/hazyhaar/regwatch/regwatch/internal/resultlog"
	"github.com/hazyhaar/regwatch/regwatch/internal/sweep"
)

// Re-export internal types for the public API.
type (
	Source          = remote.Source
	Change          = remote.Change
	TriggerOutcome  = remote.TriggerOutcome
	TriggerLogEntry = resultlog.TriggerLogEntry
	SourceRef       = sweep.SourceRef
	ConfirmFunc     = sweep.ConfirmFunc
	ProgressFunc    = sweep.ProgressFunc
	BatchSummary    = sweep.BatchSummary
	SweepReport     = sweep.SweepReport
)

// TriggerView is a trigger log entry with its presentation-ready
// classification attached.
type TriggerView struct {
	TriggerLogEntry
	Status Status `json:"status"`
	Line   string `json:"status_line"`
}

// SourceRow is one row of the dashboard's sources table: the backend's
// source joined with the most recent locally recorded trigger, if any.
type SourceRow struct {
	Source
	Eligible    bool         `json:"eligible"`
	LastTrigger *TriggerView `json:"last_trigger,omitempty"`
}

// SweepView is a sweep report with its summary line and per-item
// classifications attached.
type SweepView struct {
	Summary  BatchSummary  `json:"summary"`
	Line     string        `json:"summary_line"`
	Entries  []TriggerView `json:"entries,omitempty"`
	Declined bool          `json:"declined,omitempty"`
	SweepID  string        `json:"sweep_id,omitempty"`
}

// Overview carries the dashboard header counters.
type Overview struct {
	Sources   int `json:"sources"`
	Eligible  int `json:"eligible"`
	Triggered int `json:"triggered"` // sources with a recorded trigger
	Failed    int `json:"failed"`    // sources whose last trigger failed
}

// ChangePreview is the markdown rendering of one detected change.
type ChangePreview struct {
	ChangeID string `json:"change_id"`
	Markdown string `json:"markdown"`
}
