package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"
)

// genericTriggerError is used when a failure carries no message of its own.
const genericTriggerError = "trigger failed"

// TriggerFetch asks the backend to fetch one source immediately and
// normalizes whatever happens into a TriggerOutcome. It has no error return
// on purpose: network failures, non-2xx statuses, timeouts, and malformed
// bodies all come back as Success=false with the most specific message
// available. Callers can rely on always receiving an outcome.
func (c *Client) TriggerFetch(ctx context.Context, sourceID string) TriggerOutcome {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/sources/"+url.PathEscape(sourceID)+"/fetch", nil)
	if err != nil {
		return failedOutcome("trigger request: " + err.Error())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return failedOutcome("trigger: " + err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return failedOutcome("trigger: read response: " + err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(body)
		if msg == "" {
			msg = genericTriggerError + ": http " + resp.Status
		}
		c.logger.Warn("remote: trigger rejected", "source_id", sourceID, "status", resp.StatusCode)
		return failedOutcome(msg)
	}

	var tr triggerResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return failedOutcome("trigger: decode response: " + err.Error())
	}

	// The backend can attempt the fetch and still fail it (site down,
	// content error). That is a failed trigger too, with its message.
	if !tr.Success {
		msg := tr.Error
		if msg == "" {
			msg = genericTriggerError
		}
		return failedOutcome(msg)
	}

	fetchedAt := tr.FetchedAt
	if fetchedAt == 0 {
		fetchedAt = time.Now().UnixMilli()
	}
	return TriggerOutcome{
		Success:        true,
		FetchedAt:      fetchedAt,
		ChangeDetected: tr.ChangeDetected,
		ChangeID:       tr.ChangeID,
	}
}

func failedOutcome(msg string) TriggerOutcome {
	return TriggerOutcome{Success: false, ErrorMessage: msg}
}
