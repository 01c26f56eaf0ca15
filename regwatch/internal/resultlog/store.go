// Package resultlog keeps the most recent manual-trigger outcome per source:
// an in-memory mapping hydrated once at startup and written through to a
// Storage after every update. Durability is best-effort; a failing medium
// never affects the in-memory state or the caller.
package resultlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/hazyhaar/regwatch/regwatch/internal/remote"
)

// StorageKey is the fixed, well-known key the whole mapping is serialized
// under. The log is stored as one value, not as per-source rows.
const StorageKey = "trigger_log"

// TriggerLogEntry records the latest manual trigger for one source. A new
// attempt for the same source fully replaces the prior entry.
type TriggerLogEntry struct {
	SourceID    string                `json:"source_id"`
	SourceName  string                `json:"source_name,omitempty"`
	TriggeredAt int64                 `json:"triggered_at"` // unix ms
	Outcome     remote.TriggerOutcome `json:"outcome"`
}

// Store is the in-memory trigger log with write-through persistence.
// All mutation goes through Put, which is serialized by a mutex so the
// one-entry-per-source invariant holds under concurrent triggers.
type Store struct {
	mu      sync.Mutex
	entries map[string]TriggerLogEntry
	storage Storage
	logger  *slog.Logger
}

// NewStore builds an empty store on top of the given medium. Call Load once
// at startup to hydrate.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[string]TriggerLogEntry),
		storage: storage,
		logger:  logger,
	}
}

// Load hydrates the mapping from the storage medium. Read failures and
// corrupt payloads are logged and leave the store empty: the trigger log is
// a convenience record, never worth failing startup over.
func (s *Store) Load(ctx context.Context) {
	value, ok, err := s.storage.Read(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("resultlog: load failed, starting empty", "error", err)
		return
	}
	if !ok {
		return
	}

	var entries map[string]TriggerLogEntry
	if err := json.Unmarshal([]byte(value), &entries); err != nil {
		s.logger.Warn("resultlog: stored log unreadable, starting empty", "error", err)
		return
	}

	s.mu.Lock()
	s.entries = entries
	if s.entries == nil {
		s.entries = make(map[string]TriggerLogEntry)
	}
	s.mu.Unlock()
	s.logger.Info("resultlog: hydrated", "entries", len(entries))
}

// Get returns the stored entry for a source.
func (s *Store) Get(sourceID string) (TriggerLogEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sourceID]
	return e, ok
}

// Put overwrites the entry for entry.SourceID and flushes the whole mapping.
// A flush failure is logged and swallowed: the in-memory update stands and
// the caller never sees persistence trouble.
func (s *Store) Put(ctx context.Context, entry TriggerLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.SourceID] = entry
	if err := s.flushLocked(ctx); err != nil {
		s.logger.Error("resultlog: flush failed", "error", err, "source_id", entry.SourceID)
	}
}

// Flush serializes the full current mapping to the storage medium.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Store) flushLocked(ctx context.Context) error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return err
	}
	return s.storage.Write(ctx, StorageKey, string(data))
}

// All returns a snapshot of the log, newest first.
func (s *Store) All() []TriggerLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]TriggerLogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TriggeredAt != entries[j].TriggeredAt {
			return entries[i].TriggeredAt > entries[j].TriggeredAt
		}
		return entries[i].SourceID < entries[j].SourceID
	})
	return entries
}
