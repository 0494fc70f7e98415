// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only JSON views of contacts, companies, deals and the pipeline via crm:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

type ResourceHandlers struct {
	client *api.Client
}

func NewResourceHandlers(client *api.Client) *ResourceHandlers {
	return &ResourceHandlers{client: client}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "crm://") {
		return nil, fmt.Errorf("invalid URI scheme: expected crm://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "crm://"), "/")
	var (
		data any
		err  error
	)
	switch parts[0] {
	case "contacts":
		if len(parts) == 1 {
			data, err = h.allContacts(ctx)
		} else {
			data, err = h.contact(ctx, parts[1])
		}
	case "companies":
		if len(parts) == 1 {
			data, err = h.allCompanies(ctx)
		} else {
			data, err = h.company(ctx, parts[1])
		}
	case "deals":
		if len(parts) == 1 {
			data, err = h.allDeals(ctx)
		} else {
			data, err = h.deal(ctx, parts[1])
		}
	case "pipeline":
		data, err = h.pipeline(ctx)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if err != nil {
		return nil, err
	}

	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", parts[0], err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(text),
		},
	}}, nil
}

func (h *ResourceHandlers) allContacts(ctx context.Context) ([]ContactOutput, error) {
	contacts, err := h.client.Contacts.All(ctx, api.ContactFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	out := make([]ContactOutput, len(contacts))
	for i, c := range contacts {
		out[i] = contactToOutput(c)
	}
	return out, nil
}

func (h *ResourceHandlers) contact(ctx context.Context, id string) (any, error) {
	var (
		contact *models.Contact
		notes   []models.Note
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contact, err = h.client.Contacts.Get(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		notes, err = h.client.ContactNotes.List(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}

	return struct {
		ContactOutput
		Notes []models.Note `json:"notes"`
	}{contactToOutput(*contact), notes}, nil
}

func (h *ResourceHandlers) allCompanies(ctx context.Context) ([]CompanyOutput, error) {
	companies, err := h.client.Companies.All(ctx, api.CompanyFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch companies: %w", err)
	}
	out := make([]CompanyOutput, len(companies))
	for i, c := range companies {
		out[i] = companyToOutput(c)
	}
	return out, nil
}

func (h *ResourceHandlers) company(ctx context.Context, id string) (any, error) {
	company, err := h.client.Companies.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company: %w", err)
	}
	contacts, err := h.client.Contacts.All(ctx, api.ContactFilter{CompanyID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company contacts: %w", err)
	}

	related := make([]ContactOutput, len(contacts))
	for i, c := range contacts {
		related[i] = contactToOutput(c)
	}
	return struct {
		CompanyOutput
		Contacts []ContactOutput `json:"contacts"`
	}{companyToOutput(*company), related}, nil
}

func (h *ResourceHandlers) allDeals(ctx context.Context) ([]DealOutput, error) {
	deals, err := h.client.Deals.All(ctx, api.DealFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}
	out := make([]DealOutput, len(deals))
	for i, d := range deals {
		out[i] = dealToOutput(d)
	}
	return out, nil
}

func (h *ResourceHandlers) deal(ctx context.Context, id string) (any, error) {
	deal, err := h.client.Deals.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal: %w", err)
	}
	activities, err := h.client.Activities.All(ctx, api.ActivityFilter{DealID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deal activities: %w", err)
	}

	now := time.Now()
	history := make([]ActivityOutput, len(activities))
	for i, a := range activities {
		history[i] = activityToOutput(a, now)
	}
	return struct {
		DealOutput
		Activities []ActivityOutput `json:"activities"`
	}{dealToOutput(*deal), history}, nil
}

type pipelineStage struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Count int          `json:"count"`
	Value float64      `json:"value"`
	Deals []DealOutput `json:"deals"`
}

func (h *ResourceHandlers) pipeline(ctx context.Context) ([]pipelineStage, error) {
	var (
		stages []models.DealStage
		deals  []models.Deal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stages, err = h.client.Deals.Stages(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		deals, err = h.client.Deals.All(gctx, api.DealFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch pipeline: %w", err)
	}

	byStage := make(map[string]*pipelineStage, len(stages))
	out := make([]pipelineStage, len(stages))
	for i, s := range stages {
		out[i] = pipelineStage{ID: s.ID, Name: s.Name, Deals: []DealOutput{}}
		byStage[s.ID] = &out[i]
	}
	for _, d := range deals {
		if ps, ok := byStage[d.StageID]; ok {
			ps.Count++
			ps.Value += d.Value
			ps.Deals = append(ps.Deals, dealToOutput(d))
		}
	}
	return out, nil
}
