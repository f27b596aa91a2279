package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	uriScheme = "vidmirror://"

	// historyLimit is the number of runs listed by the runs resource.
	historyLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Recent mirror runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "mappings",
		Name:        "mappings",
		Description: "Most recently updated video mappings",
		MIMEType:    "application/json",
	}, s.handleMappingsResource)
}

// handleRunsResource returns the recent run history.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Mirror == nil {
		return jsonResult(req.Params.URI, []RunOutput{})
	}

	reports, err := s.ports.Mirror.History(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	runs := make([]RunOutput, len(reports))
	for i := range reports {
		runs[i] = toRunOutput(&reports[i])
	}
	return jsonResult(req.Params.URI, runs)
}

// handleMappingsResource returns the most recently updated mappings.
func (s *Server) handleMappingsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	mappings, err := s.ports.Mapping.List(ctx, defaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	out := make([]MappingOutput, len(mappings))
	for i := range mappings {
		out[i] = toMappingOutput(mappings[i])
	}
	return jsonResult(req.Params.URI, out)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
