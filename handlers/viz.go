// ABOUTME: GraphViz visualization and dashboard MCP handlers
// ABOUTME: Provides generate_graph and dashboard_stats tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/viz"
)

type VizHandlers struct {
	client *api.Client
}

func NewVizHandlers(client *api.Client) *VizHandlers {
	return &VizHandlers{client: client}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: pipeline or company"`
	EntityID string `json:"entity_id,omitempty" jsonschema:"Company ID (required for company graphs)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	generator := viz.NewGraphGenerator(h.client)
	var (
		dot string
		err error
	)
	switch input.Type {
	case "pipeline":
		dot, err = generator.GeneratePipelineGraph(ctx)
	case "company":
		if input.EntityID == "" {
			return nil, GenerateGraphOutput{}, fmt.Errorf("entity_id required for company graph")
		}
		dot, err = generator.GenerateCompanyGraph(ctx, input.EntityID)
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, company)", input.Type)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

type DashboardInput struct{}

type StageSummary struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type DashboardOutput struct {
	TotalContacts    int            `json:"total_contacts"`
	TotalCompanies   int            `json:"total_companies"`
	TotalDeals       int            `json:"total_deals"`
	TotalActivities  int            `json:"total_activities"`
	PipelineValue    float64        `json:"pipeline_value"`
	WeightedValue    float64        `json:"weighted_value"`
	ContactsByStatus map[string]int `json:"contacts_by_status"`
	Pipeline         []StageSummary `json:"pipeline"`
	OverdueCount     int            `json:"overdue_count"`
	Text             string         `json:"text"`
}

func (h *VizHandlers) Dashboard(ctx context.Context, _ *mcp.CallToolRequest, _ DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	stats, err := viz.GenerateDashboardStats(ctx, h.client)
	if err != nil {
		return nil, DashboardOutput{}, fmt.Errorf("failed to build dashboard: %w", err)
	}

	out := DashboardOutput{
		TotalContacts:    stats.TotalContacts,
		TotalCompanies:   stats.TotalCompanies,
		TotalDeals:       stats.TotalDeals,
		TotalActivities:  stats.TotalActivities,
		PipelineValue:    stats.PipelineValue,
		WeightedValue:    stats.WeightedValue,
		ContactsByStatus: make(map[string]int, len(stats.ContactsByStatus)),
		Pipeline:         make([]StageSummary, len(stats.Pipeline)),
		OverdueCount:     len(stats.Overdue),
		Text:             viz.RenderDashboard(stats, time.Now()),
	}
	for status, n := range stats.ContactsByStatus {
		out.ContactsByStatus[string(status)] = n
	}
	for i, p := range stats.Pipeline {
		out.Pipeline[i] = StageSummary{Stage: p.Stage.Name, Count: p.Count, Value: p.Value}
	}
	return nil, out, nil
}
