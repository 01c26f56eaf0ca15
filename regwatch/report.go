package regwatch

import (
	"fmt"

	"github.com/hazyhaar/regwatch/regwatch/internal/remote"
	"github.com/hazyhaar/regwatch/regwatch/internal/resultlog"
	"github.com/hazyhaar/regwatch/regwatch/internal/sweep"
)

// Status classifies a trigger outcome for display.
type Status string

const (
	StatusChanged   Status = "changed"   // fetch succeeded and produced new content
	StatusUnchanged Status = "unchanged" // fetch succeeded, content identical
	StatusFailed    Status = "failed"    // invocation failed
)

// Classify maps an outcome onto its display status.
func Classify(o remote.TriggerOutcome) Status {
	switch {
	case !o.Success:
		return StatusFailed
	case o.ChangeDetected:
		return StatusChanged
	default:
		return StatusUnchanged
	}
}

// Describe renders one trigger log entry as a short human-readable line.
func Describe(e resultlog.TriggerLogEntry) string {
	name := e.SourceName
	if name == "" {
		name = e.SourceID
	}
	switch Classify(e.Outcome) {
	case StatusFailed:
		msg := e.Outcome.ErrorMessage
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Sprintf("%s: failed: %s", name, msg)
	case StatusChanged:
		return fmt.Sprintf("%s: fetched, change detected", name)
	default:
		return fmt.Sprintf("%s: fetched, no change", name)
	}
}

// SummaryLine renders a batch summary as the dashboard's one-line result.
func SummaryLine(s sweep.BatchSummary) string {
	return fmt.Sprintf("Triggered %d source(s): %d succeeded, %d failed.",
		s.Attempted, s.Succeeded, s.Failed)
}

// view attaches the classification to a log entry.
func view(e resultlog.TriggerLogEntry) TriggerView {
	return TriggerView{
		TriggerLogEntry: e,
		Status:          Classify(e.Outcome),
		Line:            Describe(e),
	}
}
