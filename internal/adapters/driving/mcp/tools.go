package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// GetMappingInput is the input schema for the get_mapping tool.
type GetMappingInput struct {
	Ref string `json:"ref" jsonschema:"Source video reference: the canonical player URL or a /videos/<id> API URI"`
}

// MappingOutput represents a single video mapping.
type MappingOutput struct {
	SourceVideoRef     string `json:"source_video_ref"`
	TargetVideoID      string `json:"target_video_id,omitempty"`
	TargetStreamingRef string `json:"target_streaming_ref,omitempty"`
	Title              string `json:"title,omitempty"`
	Mapped             bool   `json:"mapped"`
	UpdatedAt          string `json:"updated_at"`
}

// GetMappingOutput is the output schema for the get_mapping tool.
type GetMappingOutput struct {
	Found   bool           `json:"found"`
	Mapping *MappingOutput `json:"mapping,omitempty"`
}

// ListMappingsInput is the input schema for the list_mappings tool.
type ListMappingsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of mappings to return (default 20)"`
}

// ListMappingsOutput is the output schema for the list_mappings tool.
type ListMappingsOutput struct {
	Mappings []MappingOutput `json:"mappings"`
	Count    int             `json:"count"`
	Total    int             `json:"total"`
}

// LastRunInput is the input schema for the last_run tool.
type LastRunInput struct{}

// RunOutput summarises a mirror run.
type RunOutput struct {
	ID                  string        `json:"id"`
	Status              string        `json:"status"`
	StartedAt           string        `json:"started_at"`
	EndedAt             string        `json:"ended_at,omitempty"`
	FoldersVisited      int           `json:"folders_visited"`
	FoldersCreated      int           `json:"folders_created"`
	VideosSeen          int           `json:"videos_seen"`
	VideosMatched       int           `json:"videos_matched"`
	VideosAlreadyMapped int           `json:"videos_already_mapped"`
	VideosCreated       int           `json:"videos_created"`
	VideosUnmatched     int           `json:"videos_unmatched"`
	Skips               []domain.Skip `json:"skips"`
	Error               string        `json:"error,omitempty"`
}

// LastRunOutput is the output schema for the last_run tool.
type LastRunOutput struct {
	Found bool       `json:"found"`
	Run   *RunOutput `json:"run,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_mapping",
		Description: "Look up the Target video mirrored from a Source video",
	}, s.handleGetMapping)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_mappings",
		Description: "List the most recently updated video mappings",
	}, s.handleListMappings)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "last_run",
		Description: "Summarise the most recent mirror run",
	}, s.handleLastRun)
}

func (s *Server) handleGetMapping(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetMappingInput,
) (*mcp.CallToolResult, GetMappingOutput, error) {
	m, err := s.ports.Mapping.Lookup(ctx, input.Ref)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, GetMappingOutput{Found: false}, nil
	}
	if err != nil {
		return nil, GetMappingOutput{}, err
	}

	out := toMappingOutput(*m)
	return nil, GetMappingOutput{Found: true, Mapping: &out}, nil
}

func (s *Server) handleListMappings(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListMappingsInput,
) (*mcp.CallToolResult, ListMappingsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	mappings, err := s.ports.Mapping.List(ctx, limit)
	if err != nil {
		return nil, ListMappingsOutput{}, fmt.Errorf("listing mappings: %w", err)
	}
	total, err := s.ports.Mapping.Count(ctx)
	if err != nil {
		return nil, ListMappingsOutput{}, fmt.Errorf("counting mappings: %w", err)
	}

	out := ListMappingsOutput{
		Mappings: make([]MappingOutput, len(mappings)),
		Count:    len(mappings),
		Total:    total,
	}
	for i := range mappings {
		out.Mappings[i] = toMappingOutput(mappings[i])
	}
	return nil, out, nil
}

func (s *Server) handleLastRun(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ LastRunInput,
) (*mcp.CallToolResult, LastRunOutput, error) {
	if s.ports.Mirror == nil {
		return nil, LastRunOutput{}, errors.New("run history is not available")
	}

	report, err := s.ports.Mirror.LastRun(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, LastRunOutput{Found: false}, nil
	}
	if err != nil {
		return nil, LastRunOutput{}, fmt.Errorf("loading last run: %w", err)
	}

	out := toRunOutput(report)
	return nil, LastRunOutput{Found: true, Run: &out}, nil
}

func toMappingOutput(m domain.VideoMapping) MappingOutput {
	return MappingOutput{
		SourceVideoRef:     m.SourceVideoRef,
		TargetVideoID:      deref(m.TargetVideoID),
		TargetStreamingRef: deref(m.TargetStreamingRef),
		Title:              deref(m.Title),
		Mapped:             m.IsMapped(),
		UpdatedAt:          m.UpdatedAt.Format(time.RFC3339),
	}
}

func toRunOutput(r *domain.RunReport) RunOutput {
	out := RunOutput{
		ID:                  r.ID,
		Status:              r.Status.String(),
		StartedAt:           r.StartedAt.Format(time.RFC3339),
		FoldersVisited:      r.FoldersVisited,
		FoldersCreated:      r.FoldersCreated,
		VideosSeen:          r.VideosSeen,
		VideosMatched:       r.VideosMatched,
		VideosAlreadyMapped: r.VideosAlreadyMapped,
		VideosCreated:       r.VideosCreated,
		VideosUnmatched:     r.VideosUnmatched,
		Skips:               r.Skips,
		Error:               r.Error,
	}
	if out.Skips == nil {
		out.Skips = []domain.Skip{}
	}
	if !r.EndedAt.IsZero() {
		out.EndedAt = r.EndedAt.Format(time.RFC3339)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
