// Package sweep drives manual triggers: one source at a time, in input
// order, with a fixed pacing wait between consecutive items. Sequential on
// purpose: it trades throughput for predictable load on the fetch backend
// and per-item progress the dashboard can display.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/regwatch/regwatch/internal/remote"
	"github.com/hazyhaar/regwatch/regwatch/internal/resultlog"
)

// SourceRef identifies one trigger target. Eligibility is the caller's
// decision; the sequencer triggers whatever list it is handed.
type SourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ConfirmFunc is the yes/no gate presented before a batch sweep. A nil gate
// declines: a batch of N triggers is never issued silently.
type ConfirmFunc func(message string) bool

// ProgressFunc receives one call per processed item. index is 1-based (the
// number of items completed so far, for "3/10" style display).
type ProgressFunc func(index, total int, sourceName string)

// BatchSummary counts the per-source outcomes of one sweep.
type BatchSummary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// SweepReport is the final result of a TriggerAll run. Entries holds the
// per-source log entries in input order. Declined marks a sweep the
// confirmation gate refused (zero invocations happened).
type SweepReport struct {
	Summary  BatchSummary                `json:"summary"`
	Entries  []resultlog.TriggerLogEntry `json:"entries,omitempty"`
	Declined bool                        `json:"declined,omitempty"`
}

// Invoker triggers one fetch on the backend and always yields an outcome,
// never an error. remote.Client satisfies it.
type Invoker interface {
	TriggerFetch(ctx context.Context, sourceID string) remote.TriggerOutcome
}

// Config tunes the sequencer.
type Config struct {
	// Pacing is the fixed wait between consecutive sweep items, skipped
	// after the last one. Default: 500ms.
	Pacing time.Duration
}

func (c *Config) defaults() {
	if c.Pacing <= 0 {
		c.Pacing = 500 * time.Millisecond
	}
}

// Sequencer runs single triggers and full sweeps against an Invoker,
// recording every outcome in the trigger log.
type Sequencer struct {
	invoker Invoker
	log     *resultlog.Store
	config  Config
	logger  *slog.Logger
	sleep   func(time.Duration)
}

// NewSequencer creates a Sequencer.
func NewSequencer(invoker Invoker, log *resultlog.Store, cfg Config, logger *slog.Logger) *Sequencer {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		invoker: invoker,
		log:     log,
		config:  cfg,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// TriggerOne invokes the backend exactly once for the given source, records
// the outcome, and returns the recorded entry. The outcome may be a failure;
// the call itself never fails.
func (sq *Sequencer) TriggerOne(ctx context.Context, src SourceRef) resultlog.TriggerLogEntry {
	outcome := sq.invoker.TriggerFetch(ctx, src.ID)
	entry := resultlog.TriggerLogEntry{
		SourceID:    src.ID,
		SourceName:  src.Name,
		TriggeredAt: time.Now().UnixMilli(),
		Outcome:     outcome,
	}
	sq.log.Put(ctx, entry)

	if outcome.Success {
		sq.logger.Info("trigger: done", "source_id", src.ID, "change_detected", outcome.ChangeDetected)
	} else {
		sq.logger.Warn("trigger: failed", "source_id", src.ID, "error", outcome.ErrorMessage)
	}
	return entry
}

// TriggerAll sweeps the given sources strictly sequentially in list order.
// An empty list returns a zero report without consulting the gate. Once the
// gate approves, the sweep detaches from the caller's cancellation and runs
// to completion over a snapshot of the list: a failing item never stops the
// remaining ones, and there is no way to abort mid-flight.
func (sq *Sequencer) TriggerAll(ctx context.Context, sources []SourceRef, confirm ConfirmFunc, progress ProgressFunc) *SweepReport {
	report := &SweepReport{}
	if len(sources) == 0 {
		return report
	}

	msg := fmt.Sprintf("Trigger a manual fetch for %d source(s)?", len(sources))
	if confirm == nil || !confirm(msg) {
		report.Declined = true
		sq.logger.Info("sweep: declined", "sources", len(sources))
		return report
	}

	// Snapshot the targets: membership changes after this point do not
	// affect the in-flight sweep.
	targets := make([]SourceRef, len(sources))
	copy(targets, sources)
	ctx = context.WithoutCancel(ctx)

	total := len(targets)
	sq.logger.Info("sweep: started", "total", total, "pacing_ms", sq.config.Pacing.Milliseconds())

	report.Entries = make([]resultlog.TriggerLogEntry, 0, total)
	for i, src := range targets {
		entry := sq.TriggerOne(ctx, src)
		report.Entries = append(report.Entries, entry)
		report.Summary.Attempted++
		if entry.Outcome.Success {
			report.Summary.Succeeded++
		} else {
			report.Summary.Failed++
		}
		if progress != nil {
			progress(i+1, total, src.Name)
		}
		if i < total-1 {
			sq.sleep(sq.config.Pacing)
		}
	}

	sq.logger.Info("sweep: done",
		"attempted", report.Summary.Attempted,
		"succeeded", report.Summary.Succeeded,
		"failed", report.Summary.Failed)
	return report
}
