package regwatch

import (
	"testing"

	"github.com/hazyhaar/regwatch/regwatch/internal/remote"
	"github.com/hazyhaar/regwatch/regwatch/internal/resultlog"
	"github.com/hazyhaar/regwatch/regwatch/internal/sweep"
)

func TestClassify(t *testing.T) {
	// WHAT: Outcomes map onto exactly three display statuses.
	// WHY: Every badge on the dashboard goes through this classification.
	cases := []struct {
		name    string
		outcome remote.TriggerOutcome
		want    Status
	}{
		{"failure", remote.TriggerOutcome{Success: false, ErrorMessage: "timeout"}, StatusFailed},
		{"success with change", remote.TriggerOutcome{Success: true, ChangeDetected: true}, StatusChanged},
		{"success without change", remote.TriggerOutcome{Success: true}, StatusUnchanged},
	}
	for _, tc := range cases {
		if got := Classify(tc.outcome); got != tc.want {
			t.Errorf("%s: Classify = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	// WHAT: Per-item lines name the source and state the result, with the
	// error message on failures.
	// WHY: These lines are shown verbatim in the trigger log view.
	cases := []struct {
		name  string
		entry resultlog.TriggerLogEntry
		want  string
	}{
		{
			"change detected",
			resultlog.TriggerLogEntry{SourceName: "EUR-Lex", Outcome: remote.TriggerOutcome{Success: true, ChangeDetected: true}},
			"EUR-Lex: fetched, change detected",
		},
		{
			"no change",
			resultlog.TriggerLogEntry{SourceName: "EUR-Lex", Outcome: remote.TriggerOutcome{Success: true}},
			"EUR-Lex: fetched, no change",
		},
		{
			"failure carries the message",
			resultlog.TriggerLogEntry{SourceName: "EUR-Lex", Outcome: remote.TriggerOutcome{ErrorMessage: "timeout"}},
			"EUR-Lex: failed: timeout",
		},
		{
			"failure without a message",
			resultlog.TriggerLogEntry{SourceName: "EUR-Lex", Outcome: remote.TriggerOutcome{}},
			"EUR-Lex: failed: unknown error",
		},
		{
			"name falls back to the id",
			resultlog.TriggerLogEntry{SourceID: "src_9", Outcome: remote.TriggerOutcome{Success: true}},
			"src_9: fetched, no change",
		},
	}
	for _, tc := range cases {
		if got := Describe(tc.entry); got != tc.want {
			t.Errorf("%s: Describe = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSummaryLine(t *testing.T) {
	// WHAT: The batch summary line has a fixed shape.
	// WHY: Operators and downstream tooling pattern-match on it.
	got := SummaryLine(sweep.BatchSummary{Attempted: 3, Succeeded: 2, Failed: 1})
	want := "Triggered 3 source(s): 2 succeeded, 1 failed."
	if got != want {
		t.Fatalf("SummaryLine = %q, want %q", got, want)
	}

	if got := SummaryLine(sweep.BatchSummary{}); got != "Triggered 0 source(s): 0 succeeded, 0 failed." {
		t.Fatalf("empty SummaryLine = %q", got)
	}
}
