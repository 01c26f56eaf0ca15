// Package audit records operator trigger actions in SQLite so an
// administrator can answer "who forced a fetch, when, and what happened"
// after the fact. Writes are best-effort: a failing audit store never blocks
// a trigger.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/regwatch/dbopen"
	"github.com/hazyhaar/regwatch/idgen"
)

// Event is a domain-level record of one operator action.
type Event struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"` // "trigger_one", "sweep"
	Transport  string `json:"transport"`  // "http", "mcp_stdio"
	SourceID   string `json:"source_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	SweepID    string `json:"sweep_id,omitempty"`
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"` // optional JSON
	Success    bool   `json:"success"`
	CreatedAt  int64  `json:"created_at"`
}

// EventLogger writes trigger events to the audit store.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures an EventLogger.
type Option func(*EventLogger)

// WithIDGenerator sets a custom ID generator for event IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given database. The caller
// is responsible for applying Schema (directly or via dbopen.WithSchema).
func NewEventLogger(db *sql.DB, opts ...Option) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogEvent records a trigger event. Non-blocking: errors are logged via slog
// but do not propagate, so a failing audit store never blocks a trigger.
func (l *EventLogger) LogEvent(ctx context.Context, event Event) {
	eventID := l.newID()
	_, err := dbopen.Exec(ctx, l.db, `
		INSERT INTO trigger_events (
			event_id, event_type, transport, source_id, source_name,
			sweep_id, action, details, success, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		eventID, event.EventType, event.Transport, event.SourceID, event.SourceName,
		event.SweepID, event.Action, event.Details, event.Success, time.Now().Unix())
	if err != nil {
		slog.Error("audit: event log failed", "error", err, "event_type", event.EventType)
	}
}

// Recent returns the most recent events, newest first. limit <= 0 defaults
// to 100.
func (l *EventLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_id, event_type, transport, source_id, source_name,
		       sweep_id, action, details, success, created_at
		FROM trigger_events
		ORDER BY created_at DESC, event_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var sourceID, sourceName, sweepID, details sql.NullString
		var success int
		if err := rows.Scan(
			&e.EventID, &e.EventType, &e.Transport, &sourceID, &sourceName,
			&sweepID, &e.Action, &details, &success, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.SourceID = sourceID.String
		e.SourceName = sourceName.String
		e.SweepID = sweepID.String
		e.Details = details.String
		e.Success = success != 0
		events = append(events, e)
	}
	return events, rows.Err()
}
