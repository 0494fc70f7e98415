// ABOUTME: MCP prompt handlers for reusable CRM workflow templates
// ABOUTME: Builds contact-summary, deal-analysis and follow-up-suggestions prompts from live data
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/viz"
)

type PromptHandlers struct {
	client *api.Client
	now    func() time.Time
}

func NewPromptHandlers(client *api.Client) *PromptHandlers {
	return &PromptHandlers{client: client, now: time.Now}
}

// Prompts lists the templates GetPrompt can render.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "contact-summary",
			Description: "Summarize a contact with their notes and open activities",
			Arguments: []*mcp.PromptArgument{
				{Name: "contact_id", Description: "Contact ID", Required: true},
			},
		},
		{
			Name:        "deal-analysis",
			Description: "Analyze the health of the deal pipeline",
		},
		{
			Name:        "follow-up-suggestions",
			Description: "Suggest follow-ups from hot contacts and overdue activities",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "contact-summary":
		return h.contactSummary(ctx, request.Params.Arguments)
	case "deal-analysis":
		return h.dealAnalysis(ctx)
	case "follow-up-suggestions":
		return h.followUpSuggestions(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) contactSummary(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["contact_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("contact_id is required")
	}

	contact, err := h.client.Contacts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	notes, err := h.client.ContactNotes.List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	pending, err := h.client.Activities.All(ctx, api.ActivityFilter{ContactID: id, Completed: api.Bool(false)})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}

	var b strings.Builder
	b.WriteString("Please provide a comprehensive summary of this contact:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", contact.Name)
	if contact.Position != "" {
		fmt.Fprintf(&b, "Position: %s\n", contact.Position)
	}
	if contact.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", contact.Email)
	}
	if contact.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", contact.Company)
	}
	fmt.Fprintf(&b, "Status: %s\n", contact.Status)
	if len(contact.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", contact.Tags.String())
	}
	if contact.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", contact.Notes)
	}
	if len(notes) > 0 {
		b.WriteString("\nNote history:\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "  - %s: %s\n", n.CreatedAt.Format("2006-01-02"), n.Content)
		}
	}
	if len(pending) > 0 {
		b.WriteString("\nOpen activities:\n")
		for _, a := range pending {
			fmt.Fprintf(&b, "  - [%s] %s%s\n", a.Type, a.Subject, dueSuffix(a))
		}
	}

	b.WriteString("\nPlease analyze this contact and provide:")
	b.WriteString("\n1. A brief summary of their role and background")
	b.WriteString("\n2. Recommendations for next steps or follow-up actions")
	b.WriteString("\n3. Any patterns or insights from their note history")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", contact.Name), b.String()), nil
}

func (h *PromptHandlers) dealAnalysis(ctx context.Context) (*mcp.GetPromptResult, error) {
	stages, err := h.client.Deals.Stages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stages: %w", err)
	}
	deals, err := h.client.Deals.All(ctx, api.DealFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}

	var total, weighted float64
	for _, d := range deals {
		total += d.Value
		weighted += d.WeightedValue()
	}

	var b strings.Builder
	b.WriteString("Please analyze the current deal pipeline:\n\n")
	fmt.Fprintf(&b, "Total Deals: %d\n", len(deals))
	fmt.Fprintf(&b, "Total Value: %.2f\n", total)
	fmt.Fprintf(&b, "Weighted Value: %.2f\n\n", weighted)
	b.WriteString("Pipeline by Stage:\n")
	for _, s := range viz.PipelineByStage(stages, deals) {
		fmt.Fprintf(&b, "  - %s: %d deals, %.2f\n", s.Stage.Name, s.Count, s.Value)
	}

	b.WriteString("\nPlease provide:")
	b.WriteString("\n1. Analysis of pipeline health and distribution")
	b.WriteString("\n2. Recommendations for deals that may need attention")
	b.WriteString("\n3. Suggestions for improving conversion rates")

	return userPrompt("Deal pipeline analysis", b.String()), nil
}

func (h *PromptHandlers) followUpSuggestions(ctx context.Context) (*mcp.GetPromptResult, error) {
	hot, err := h.client.Contacts.List(ctx, api.ContactFilter{Status: models.StatusHot, ListParams: api.ListParams{Limit: 20}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch hot contacts: %w", err)
	}
	overdue, err := h.client.Activities.All(ctx, api.ActivityFilter{Completed: api.Bool(false), Overdue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overdue activities: %w", err)
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].DueDate.Before(*overdue[j].DueDate) })

	var b strings.Builder
	b.WriteString("Based on the CRM data, suggest who to follow up with:\n\n")
	if len(overdue) > 0 {
		fmt.Fprintf(&b, "Overdue activities (%d):\n", len(overdue))
		now := h.now()
		for _, a := range overdue {
			days := int(now.Sub(*a.DueDate).Hours() / 24)
			fmt.Fprintf(&b, "  - [%s] %s (%d days late)\n", a.Type, a.Subject, days)
		}
		b.WriteString("\n")
	}
	if len(hot.Items) > 0 {
		b.WriteString("Hot contacts:\n")
		for _, c := range hot.Items {
			line := c.Name
			if c.Company != "" {
				line += " (" + c.Company + ")"
			}
			fmt.Fprintf(&b, "  - %s\n", line)
		}
		b.WriteString("\n")
	}
	if len(overdue) == 0 && len(hot.Items) == 0 {
		b.WriteString("Nothing is overdue and no contact is marked hot.\n\n")
	}

	b.WriteString("Please provide:")
	b.WriteString("\n1. A prioritized list of follow-ups")
	b.WriteString("\n2. A suggested approach for each")
	b.WriteString("\n3. Any activities that should be rescheduled or closed")

	return userPrompt("Follow-up suggestions", b.String()), nil
}

func dueSuffix(a models.Activity) string {
	if a.DueDate == nil {
		return ""
	}
	return " (due " + a.DueDate.Format("2006-01-02") + ")"
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
