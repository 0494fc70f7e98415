// ABOUTME: Deal MCP tool handlers
// ABOUTME: Implements find_deals, create_deal, update_deal and list_stages
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

type DealHandlers struct {
	client *api.Client
}

func NewDealHandlers(client *api.Client) *DealHandlers {
	return &DealHandlers{client: client}
}

type FindDealsInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Search query (deal title)"`
	Stage     string `json:"stage,omitempty" jsonschema:"Stage ID or stage name"`
	ContactID string `json:"contact_id,omitempty" jsonschema:"Filter by contact ID"`
	CompanyID string `json:"company_id,omitempty" jsonschema:"Filter by company ID"`
	Page      int    `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Page size (default 20)"`
}

type FindDealsOutput struct {
	Deals      []DealOutput `json:"deals"`
	Pagination PageOutput   `json:"pagination"`
}

func (h *DealHandlers) FindDeals(ctx context.Context, _ *mcp.CallToolRequest, input FindDealsInput) (*mcp.CallToolResult, FindDealsOutput, error) {
	f := api.DealFilter{
		ListParams: api.ListParams{Page: input.Page, Limit: input.Limit, Search: input.Query},
		ContactID:  input.ContactID,
		CompanyID:  input.CompanyID,
	}
	if input.Stage != "" {
		stage, err := h.resolveStage(ctx, input.Stage)
		if err != nil {
			return nil, FindDealsOutput{}, err
		}
		f.StageID = stage.ID
	}

	page, err := h.client.Deals.List(ctx, f)
	if err != nil {
		return nil, FindDealsOutput{}, fmt.Errorf("failed to find deals: %w", err)
	}
	out := FindDealsOutput{Deals: make([]DealOutput, len(page.Items)), Pagination: pageToOutput(page.Pagination)}
	for i, d := range page.Items {
		out.Deals[i] = dealToOutput(d)
	}
	return nil, out, nil
}

type CreateDealInput struct {
	Title             string  `json:"title" jsonschema:"Deal title (required)"`
	Stage             string  `json:"stage" jsonschema:"Stage ID or name, e.g. lead or proposal (required)"`
	Value             float64 `json:"value,omitempty" jsonschema:"Deal value"`
	Currency          string  `json:"currency,omitempty" jsonschema:"Three letter currency code (default USD)"`
	Probability       int     `json:"probability,omitempty" jsonschema:"Win probability 0-100"`
	ContactID         string  `json:"contact_id,omitempty" jsonschema:"Primary contact ID"`
	CompanyID         string  `json:"company_id,omitempty" jsonschema:"Company ID"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty" jsonschema:"Expected close date (YYYY-MM-DD)"`
	Notes             string  `json:"notes,omitempty" jsonschema:"Notes about the deal"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.Stage == "" {
		return nil, DealOutput{}, fmt.Errorf("stage is required")
	}
	stage, err := h.resolveStage(ctx, input.Stage)
	if err != nil {
		return nil, DealOutput{}, err
	}

	deal, err := h.client.Deals.Create(ctx, api.DealInput{
		Title:             input.Title,
		Value:             input.Value,
		Currency:          input.Currency,
		StageID:           stage.ID,
		ContactID:         input.ContactID,
		CompanyID:         input.CompanyID,
		Probability:       input.Probability,
		ExpectedCloseDate: input.ExpectedCloseDate,
		Notes:             input.Notes,
	})
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	return nil, dealToOutput(*deal), nil
}

type UpdateDealInput struct {
	ID                string   `json:"id" jsonschema:"Deal ID (required)"`
	Title             string   `json:"title,omitempty" jsonschema:"New title"`
	Stage             string   `json:"stage,omitempty" jsonschema:"Move the deal to this stage (ID or name)"`
	Value             *float64 `json:"value,omitempty" jsonschema:"New value"`
	Probability       *int     `json:"probability,omitempty" jsonschema:"New win probability 0-100"`
	ExpectedCloseDate string   `json:"expected_close_date,omitempty" jsonschema:"New expected close date (YYYY-MM-DD)"`
	Notes             string   `json:"notes,omitempty" jsonschema:"Replacement notes"`
}

func (h *DealHandlers) UpdateDeal(ctx context.Context, _ *mcp.CallToolRequest, input UpdateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.ID == "" {
		return nil, DealOutput{}, fmt.Errorf("id is required")
	}
	u := api.DealUpdate{
		Title:             nonEmpty(input.Title),
		Value:             input.Value,
		Probability:       input.Probability,
		ExpectedCloseDate: nonEmpty(input.ExpectedCloseDate),
		Notes:             nonEmpty(input.Notes),
	}
	if input.Stage != "" {
		stage, err := h.resolveStage(ctx, input.Stage)
		if err != nil {
			return nil, DealOutput{}, err
		}
		u.StageID = &stage.ID
	}

	deal, err := h.client.Deals.Update(ctx, input.ID, u)
	if err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to update deal: %w", err)
	}
	return nil, dealToOutput(*deal), nil
}

type ListStagesInput struct{}

type ListStagesOutput struct {
	Stages []models.DealStage `json:"stages"`
}

func (h *DealHandlers) ListStages(ctx context.Context, _ *mcp.CallToolRequest, _ ListStagesInput) (*mcp.CallToolResult, ListStagesOutput, error) {
	stages, err := h.client.Deals.Stages(ctx)
	if err != nil {
		return nil, ListStagesOutput{}, fmt.Errorf("failed to list stages: %w", err)
	}
	return nil, ListStagesOutput{Stages: stages}, nil
}

// resolveStage matches ref against stage IDs first and names second, ignoring case.
func (h *DealHandlers) resolveStage(ctx context.Context, ref string) (models.DealStage, error) {
	stages, err := h.client.Deals.Stages(ctx)
	if err != nil {
		return models.DealStage{}, fmt.Errorf("failed to load stages: %w", err)
	}
	if s, ok := models.FindStage(stages, ref); ok {
		return s, nil
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return models.DealStage{}, fmt.Errorf("unknown stage %q (valid: %s)", ref, strings.Join(names, ", "))
}
