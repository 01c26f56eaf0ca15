package remote

// Source describes one monitored policy-document endpoint as reported by the
// fetch backend. The dashboard never owns sources; it reads them and asks the
// backend to fetch them.
type Source struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	Category      string `json:"category,omitempty"`
	Enabled       bool   `json:"enabled"`
	Fetching      bool   `json:"fetching"`
	LastStatus    string `json:"last_status,omitempty"`
	LastFetchedAt int64  `json:"last_fetched_at,omitempty"` // unix ms
	FailCount     int    `json:"fail_count,omitempty"`
}

// Eligible reports whether the source currently accepts a manual trigger:
// enabled and not already mid-fetch.
func (s Source) Eligible() bool {
	return s.Enabled && !s.Fetching
}

// Change is one detected content change on a source.
type Change struct {
	ID         string `json:"id"`
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name,omitempty"`
	DetectedAt int64  `json:"detected_at"` // unix ms
	Summary    string `json:"summary,omitempty"`
}

// TriggerOutcome is the normalized result of one manual trigger invocation.
// Exactly one of the success fields or ErrorMessage is meaningful: on
// success, FetchedAt is set and ChangeDetected/ChangeID describe what the
// fetch found; on failure, ErrorMessage carries the cause.
type TriggerOutcome struct {
	Success        bool   `json:"success"`
	FetchedAt      int64  `json:"fetched_at,omitempty"` // unix ms, success only
	ChangeDetected bool   `json:"change_detected,omitempty"`
	ChangeID       string `json:"change_id,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// triggerResponse is the backend's wire shape for a fetch trigger.
type triggerResponse struct {
	Success        bool   `json:"success"`
	FetchedAt      int64  `json:"fetched_at"`
	ChangeDetected bool   `json:"change_detected"`
	ChangeID       string `json:"change_id"`
	Error          string `json:"error"`
}
