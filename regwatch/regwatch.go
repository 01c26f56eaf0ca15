package regwatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/regwatch/audit"
	"github.com/hazyhaar/regwatch/idgen"
	"github.com/hazyhaar/regwatch/kit"
	"github.com/hazyhaar/regwatch/regwatch/internal/remote"
	"github.com/hazyhaar/regwatch/regwatch/internal/resultlog"
	"github.com/hazyhaar/regwatch/regwatch/internal/sweep"
)

// Service is the regwatch orchestrator: it owns the backend client, the
// trigger log, and the sequencer, and exposes the operations the HTTP and
// MCP layers build on.
type Service struct {
	backend     *remote.Client
	log         *resultlog.Store
	sequencer   *sweep.Sequencer
	logger      *slog.Logger
	config      *Config
	audit       *audit.EventLogger // optional
	newSweepID  idgen.Generator
	sanitizer   *bluemonday.Policy
	stripper    *bluemonday.Policy
	mdConverter *converter.Converter
}

// New creates a regwatch Service. stateDB holds the dashboard state table
// (apply StateSchema before calling, directly or via dbopen.WithSchema).
func New(stateDB *sql.DB, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := remote.NewClient(remote.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Token:     cfg.Backend.Token,
		Timeout:   cfg.Backend.Timeout,
		UserAgent: cfg.Backend.UserAgent,
		MaxBytes:  cfg.Backend.MaxBytes,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("regwatch: backend client: %w", err)
	}

	log := resultlog.NewStore(resultlog.NewSQLiteStorage(stateDB), logger)

	svc := &Service{
		backend:    backend,
		log:        log,
		logger:     logger,
		config:     cfg,
		newSweepID: idgen.Prefixed("swp_", idgen.Default),
		sanitizer:  bluemonday.UGCPolicy(),
		stripper:   bluemonday.StrictPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
	for _, opt := range opts {
		opt(svc)
	}

	svc.sequencer = sweep.NewSequencer(backend, log, sweep.Config{
		Pacing: cfg.Sweep.Pacing,
	}, logger)

	return svc, nil
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithAudit sets the audit logger for operator trigger actions.
func WithAudit(a *audit.EventLogger) ServiceOption {
	return func(svc *Service) { svc.audit = a }
}

// WithIDGenerator sets a custom sweep ID generator.
func WithIDGenerator(gen idgen.Generator) ServiceOption {
	return func(svc *Service) { svc.newSweepID = gen }
}

// Start hydrates the trigger log from persistent storage. Call once after
// New, before serving requests.
func (svc *Service) Start(ctx context.Context) {
	svc.log.Load(ctx)
	svc.logger.Info("regwatch: started")
}

// Close shuts down the service. The state database is owned by the caller.
func (svc *Service) Close() error {
	svc.logger.Info("regwatch: closed")
	return nil
}

// ApplySchema applies the dashboard state schema to a database. Exported for
// callers that manage schemas themselves rather than through dbopen.
func ApplySchema(db *sql.DB) error {
	return resultlog.ApplySchema(db)
}

// StateSchema is the DDL for the dashboard state table, for use with
// dbopen.WithSchema.
const StateSchema = resultlog.Schema

// --- Triggers ---

// TriggerOne forces an out-of-band fetch for one source and returns the
// recorded entry with its classification. The entry may carry a failed
// outcome; the method itself only errors on invalid input or an unknown
// source.
func (svc *Service) TriggerOne(ctx context.Context, sourceID string) (*TriggerView, error) {
	if sourceID == "" {
		return nil, fmt.Errorf("%w: source id required", ErrInvalidInput)
	}

	ref := SourceRef{ID: sourceID}
	src, err := svc.backend.GetSource(ctx, sourceID)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		return nil, fmt.Errorf("%w: source %s", ErrNotFound, sourceID)
	case err != nil:
		// The lookup only supplies the display name; a flaky backend will
		// surface through the trigger outcome itself.
		svc.logger.Warn("regwatch: source lookup failed, triggering anyway",
			"source_id", sourceID, "error", err)
	default:
		ref.Name = src.Name
	}

	entry := svc.sequencer.TriggerOne(ctx, ref)
	svc.auditEvent(ctx, audit.Event{
		EventType:  "trigger_one",
		SourceID:   entry.SourceID,
		SourceName: entry.SourceName,
		Action:     "manual trigger",
		Success:    entry.Outcome.Success,
	})

	v := view(entry)
	return &v, nil
}

// TriggerAll sweeps the given sources strictly sequentially in list order,
// pacing between items. The confirmation gate must approve before any
// invocation; a declined (or nil) gate yields a declined report with zero
// invocations. progress, if non-nil, receives one call per completed item on
// top of the service's own progress logging.
func (svc *Service) TriggerAll(ctx context.Context, sources []SourceRef, confirm ConfirmFunc, progress ProgressFunc) *SweepView {
	sweepID := svc.newSweepID()
	report := svc.sequencer.TriggerAll(ctx, sources, confirm, svc.progressSink(sweepID, progress))

	if len(sources) > 0 && !report.Declined {
		svc.auditEvent(ctx, audit.Event{
			EventType: "sweep",
			SweepID:   sweepID,
			Action:    SummaryLine(report.Summary),
			Success:   report.Summary.Failed == 0,
		})
	}
	return sweepView(sweepID, report)
}

// TriggerEligible sweeps every source currently accepting manual triggers:
// enabled and not mid-fetch, as reported by the backend at call time.
func (svc *Service) TriggerEligible(ctx context.Context, confirm ConfirmFunc, progress ProgressFunc) (*SweepView, error) {
	refs, err := svc.EligibleSources(ctx)
	if err != nil {
		return nil, err
	}
	return svc.TriggerAll(ctx, refs, confirm, progress), nil
}

// EligibleSources returns trigger targets for every eligible source, in the
// backend's listing order.
func (svc *Service) EligibleSources(ctx context.Context) ([]SourceRef, error) {
	sources, err := svc.backend.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("regwatch: eligible sources: %w", err)
	}
	refs := make([]SourceRef, 0, len(sources))
	for _, s := range sources {
		if s.Eligible() {
			refs = append(refs, SourceRef{ID: s.ID, Name: s.Name})
		}
	}
	return refs, nil
}

// progressSink logs every sweep progress event and forwards it to the
// caller's sink when one is set.
func (svc *Service) progressSink(sweepID string, next ProgressFunc) ProgressFunc {
	return func(index, total int, sourceName string) {
		svc.logger.Info("sweep: progress",
			"sweep_id", sweepID, "index", index, "total", total, "source", sourceName)
		if next != nil {
			next(index, total, sourceName)
		}
	}
}

func sweepView(sweepID string, report *sweep.SweepReport) *SweepView {
	v := &SweepView{
		Summary:  report.Summary,
		Line:     SummaryLine(report.Summary),
		Declined: report.Declined,
	}
	if report.Summary.Attempted > 0 {
		v.SweepID = sweepID
	}
	for _, e := range report.Entries {
		v.Entries = append(v.Entries, view(e))
	}
	return v
}

// --- Trigger log ---

// LastOutcome returns the most recent recorded trigger for a source.
func (svc *Service) LastOutcome(sourceID string) (*TriggerView, bool) {
	entry, ok := svc.log.Get(sourceID)
	if !ok {
		return nil, false
	}
	v := view(entry)
	return &v, true
}

// TriggerLog returns every recorded trigger, newest first.
func (svc *Service) TriggerLog() []TriggerView {
	entries := svc.log.All()
	views := make([]TriggerView, 0, len(entries))
	for _, e := range entries {
		views = append(views, view(e))
	}
	return views
}

// --- Sources & changes ---

// Sources returns the dashboard's sources table: backend sources joined with
// their last recorded trigger.
func (svc *Service) Sources(ctx context.Context) ([]SourceRow, error) {
	sources, err := svc.backend.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("regwatch: list sources: %w", err)
	}
	rows := make([]SourceRow, 0, len(sources))
	for _, s := range sources {
		row := SourceRow{Source: s, Eligible: s.Eligible()}
		if entry, ok := svc.log.Get(s.ID); ok {
			v := view(entry)
			row.LastTrigger = &v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Changes returns detected changes from the backend, newest first. sourceID
// filters to one source when non-empty; limit <= 0 lets the backend choose.
func (svc *Service) Changes(ctx context.Context, sourceID string, limit int) ([]Change, error) {
	changes, err := svc.backend.ListChanges(ctx, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("regwatch: list changes: %w", err)
	}
	return changes, nil
}

// Overview returns the dashboard header counters.
func (svc *Service) Overview(ctx context.Context) (*Overview, error) {
	sources, err := svc.backend.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("regwatch: overview: %w", err)
	}
	ov := &Overview{Sources: len(sources)}
	for _, s := range sources {
		if s.Eligible() {
			ov.Eligible++
		}
		if entry, ok := svc.log.Get(s.ID); ok {
			ov.Triggered++
			if !entry.Outcome.Success {
				ov.Failed++
			}
		}
	}
	return ov, nil
}

// auditEvent records an operator action if an audit logger is configured.
func (svc *Service) auditEvent(ctx context.Context, event audit.Event) {
	if svc.audit == nil {
		return
	}
	event.Transport = kit.GetTransport(ctx)
	svc.audit.LogEvent(ctx, event)
}
