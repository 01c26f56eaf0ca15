package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTriggerFetch_Success(t *testing.T) {
	// WHAT: A 2xx trigger response maps onto a success outcome.
	// WHY: Outcome fields drive the dashboard's per-source status.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/api/sources/src_1/fetch" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"fetched_at":1724400000000,"change_detected":true,"change_id":"chg_9"}`))
	}))

	o := c.TriggerFetch(context.Background(), "src_1")
	if !o.Success {
		t.Fatalf("outcome = %+v, want success", o)
	}
	if o.FetchedAt != 1724400000000 {
		t.Errorf("fetched_at = %d", o.FetchedAt)
	}
	if !o.ChangeDetected || o.ChangeID != "chg_9" {
		t.Errorf("change fields = %v %q", o.ChangeDetected, o.ChangeID)
	}
	if o.ErrorMessage != "" {
		t.Errorf("error message = %q, want empty", o.ErrorMessage)
	}
}

func TestTriggerFetch_SuccessWithoutTimestamp(t *testing.T) {
	// WHAT: A success response without fetched_at gets stamped locally.
	// WHY: The trigger log always needs a completion time to display.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))

	before := time.Now().UnixMilli()
	o := c.TriggerFetch(context.Background(), "src_1")
	if !o.Success {
		t.Fatalf("outcome = %+v", o)
	}
	if o.FetchedAt < before {
		t.Errorf("fetched_at = %d, want >= %d", o.FetchedAt, before)
	}
}

func TestTriggerFetch_BackendReportedFailure(t *testing.T) {
	// WHAT: success=false in a 2xx body becomes a failed outcome with the
	// backend's message.
	// WHY: The backend can accept the trigger and still fail the fetch.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":false,"error":"timeout"}`))
	}))

	o := c.TriggerFetch(context.Background(), "src_1")
	if o.Success {
		t.Fatal("want failure")
	}
	if o.ErrorMessage != "timeout" {
		t.Fatalf("error message = %q, want timeout", o.ErrorMessage)
	}
}

func TestTriggerFetch_Non2xx(t *testing.T) {
	// WHAT: A non-2xx status becomes a failed outcome, preferring the JSON
	// error field and falling back to a generic http message.
	// WHY: Callers never see transport detail, only the outcome.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(409)
		w.Write([]byte(`{"error":"source is mid-fetch"}`))
	}))
	o := c.TriggerFetch(context.Background(), "src_1")
	if o.Success || o.ErrorMessage != "source is mid-fetch" {
		t.Fatalf("outcome = %+v", o)
	}

	c2, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(503)
	}))
	o2 := c2.TriggerFetch(context.Background(), "src_1")
	if o2.Success {
		t.Fatal("want failure")
	}
	if !strings.Contains(o2.ErrorMessage, "http 503") {
		t.Fatalf("error message = %q, want generic http 503", o2.ErrorMessage)
	}
}

func TestTriggerFetch_NetworkError(t *testing.T) {
	// WHAT: A connection failure comes back as a failed outcome, not an error.
	// WHY: The no-error signature is the isolation guarantee sweeps build on.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	c, err := NewClient(Config{BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv.Close() // connection refused from here on

	o := c.TriggerFetch(context.Background(), "src_1")
	if o.Success {
		t.Fatal("want failure")
	}
	if o.ErrorMessage == "" {
		t.Fatal("want an error message")
	}
}

func TestTriggerFetch_MalformedBody(t *testing.T) {
	// WHAT: Undecodable 2xx bodies become failed outcomes.
	// WHY: A half-broken backend must not crash a sweep.
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{not json`))
	}))

	o := c.TriggerFetch(context.Background(), "src_1")
	if o.Success {
		t.Fatal("want failure")
	}
	if !strings.Contains(o.ErrorMessage, "decode") {
		t.Fatalf("error message = %q", o.ErrorMessage)
	}
}
