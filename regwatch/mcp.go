package regwatch

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/regwatch/kit"
)

// RegisterMCP registers all regwatch tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerTriggerSource(srv)
	svc.registerTriggerAll(srv)
	svc.registerTriggerLog(srv)
	svc.registerListSources(srv)
	svc.registerChangePreview(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (svc *Service) registerTriggerSource(srv *mcp.Server) {
	type req struct {
		SourceID string `json:"source_id"`
	}

	tool := &mcp.Tool{
		Name:        "regwatch_trigger_source",
		Description: "Force an out-of-band fetch for one monitored source",
		InputSchema: inputSchema(map[string]any{
			"source_id": map[string]any{"type": "string", "description": "Source ID"},
		}, []string{"source_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		return svc.TriggerOne(ctx, r.(*req).SourceID)
	}

	decode := func(raw json.RawMessage) (any, error) {
		var p req
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerTriggerAll(srv *mcp.Server) {
	type req struct {
		Confirm bool `json:"confirm"`
	}

	tool := &mcp.Tool{
		Name:        "regwatch_trigger_all",
		Description: "Sequentially trigger a fetch for every eligible source. Requires confirm=true; the sweep runs to completion once started.",
		InputSchema: inputSchema(map[string]any{
			"confirm": map[string]any{"type": "boolean", "description": "Must be true to start the sweep"},
		}, []string{"confirm"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		gate := func(string) bool { return p.Confirm }
		return svc.TriggerEligible(ctx, gate, nil)
	}

	decode := func(raw json.RawMessage) (any, error) {
		var p req
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerTriggerLog(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "regwatch_trigger_log",
		Description: "List the most recent manual trigger outcome per source, newest first",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.TriggerLog(), nil
	}

	decode := func(json.RawMessage) (any, error) { return nil, nil }

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerListSources(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "regwatch_list_sources",
		Description: "List monitored sources with eligibility and last manual trigger status",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.Sources(ctx)
	}

	decode := func(json.RawMessage) (any, error) { return nil, nil }

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerChangePreview(srv *mcp.Server) {
	type req struct {
		ChangeID string `json:"change_id"`
	}

	tool := &mcp.Tool{
		Name:        "regwatch_change_preview",
		Description: "Render a detected change as sanitized markdown",
		InputSchema: inputSchema(map[string]any{
			"change_id": map[string]any{"type": "string", "description": "Change ID"},
		}, []string{"change_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		return svc.ChangePreview(ctx, r.(*req).ChangeID)
	}

	decode := func(raw json.RawMessage) (any, error) {
		var p req
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
