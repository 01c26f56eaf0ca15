package regwatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hazyhaar/regwatch/regwatch/internal/remote"
)

// ChangePreview fetches the stored HTML of one detected change, sanitizes it,
// and converts it to markdown for display. Backend change content is treated
// as untrusted: scripts, event handlers, and embedded styling never reach the
// dashboard or MCP clients.
func (svc *Service) ChangePreview(ctx context.Context, changeID string) (*ChangePreview, error) {
	if changeID == "" {
		return nil, fmt.Errorf("%w: change id required", ErrInvalidInput)
	}

	html, err := svc.backend.ChangeContent(ctx, changeID)
	if errors.Is(err, remote.ErrNotFound) {
		return nil, fmt.Errorf("%w: change %s", ErrNotFound, changeID)
	}
	if err != nil {
		return nil, fmt.Errorf("regwatch: change preview: %w", err)
	}

	return &ChangePreview{
		ChangeID: changeID,
		Markdown: svc.htmlToMarkdown(html),
	}, nil
}

// htmlToMarkdown sanitizes HTML and converts it to structured markdown. If
// conversion fails or produces empty output, it falls back to the tag-stripped
// plain text.
func (svc *Service) htmlToMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	clean := svc.sanitizer.Sanitize(html)
	result, err := svc.mdConverter.ConvertString(clean)
	if err != nil || strings.TrimSpace(result) == "" {
		return strings.TrimSpace(svc.stripper.Sanitize(html))
	}
	return strings.TrimSpace(result)
}
