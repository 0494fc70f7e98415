// ABOUTME: Activity and note MCP tool handlers
// ABOUTME: Implements list_activities, add_activity, complete_activity and add_note
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

type ActivityHandlers struct {
	client *api.Client
	now    func() time.Time
}

func NewActivityHandlers(client *api.Client) *ActivityHandlers {
	return &ActivityHandlers{client: client, now: time.Now}
}

type ListActivitiesInput struct {
	Type      string `json:"type,omitempty" jsonschema:"call, email, meeting, note or task"`
	Pending   bool   `json:"pending,omitempty" jsonschema:"Only activities not yet completed"`
	Overdue   bool   `json:"overdue,omitempty" jsonschema:"Only pending activities whose due date has passed"`
	ContactID string `json:"contact_id,omitempty" jsonschema:"Filter by contact ID"`
	DealID    string `json:"deal_id,omitempty" jsonschema:"Filter by deal ID"`
	Page      int    `json:"page,omitempty" jsonschema:"Page number (default 1)"`
}

type ListActivitiesOutput struct {
	Activities []ActivityOutput `json:"activities"`
	Pagination PageOutput       `json:"pagination"`
}

func (h *ActivityHandlers) ListActivities(ctx context.Context, _ *mcp.CallToolRequest, input ListActivitiesInput) (*mcp.CallToolResult, ListActivitiesOutput, error) {
	f := api.ActivityFilter{
		ListParams: api.ListParams{Page: input.Page},
		Type:       models.ActivityType(input.Type),
		ContactID:  input.ContactID,
		DealID:     input.DealID,
		Overdue:    input.Overdue,
	}
	if input.Pending || input.Overdue {
		f.Completed = api.Bool(false)
	}

	page, err := h.client.Activities.List(ctx, f)
	if err != nil {
		return nil, ListActivitiesOutput{}, fmt.Errorf("failed to list activities: %w", err)
	}
	now := h.now()
	out := ListActivitiesOutput{Activities: make([]ActivityOutput, len(page.Items)), Pagination: pageToOutput(page.Pagination)}
	for i, a := range page.Items {
		out.Activities[i] = activityToOutput(a, now)
	}
	return nil, out, nil
}

type AddActivityInput struct {
	Type        string `json:"type" jsonschema:"call, email, meeting, note or task (required)"`
	Subject     string `json:"subject" jsonschema:"Short subject line (required)"`
	Description string `json:"description,omitempty" jsonschema:"Longer description"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"Due date (YYYY-MM-DD or YYYY-MM-DD HH:MM)"`
	ContactID   string `json:"contact_id,omitempty" jsonschema:"Related contact ID"`
	CompanyID   string `json:"company_id,omitempty" jsonschema:"Related company ID"`
	DealID      string `json:"deal_id,omitempty" jsonschema:"Related deal ID"`
}

func (h *ActivityHandlers) AddActivity(ctx context.Context, _ *mcp.CallToolRequest, input AddActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	activity, err := h.client.Activities.Create(ctx, api.ActivityInput{
		Type:        models.ActivityType(input.Type),
		Subject:     input.Subject,
		Description: input.Description,
		DueDate:     input.DueDate,
		ContactID:   input.ContactID,
		CompanyID:   input.CompanyID,
		DealID:      input.DealID,
	})
	if err != nil {
		return nil, ActivityOutput{}, fmt.Errorf("failed to create activity: %w", err)
	}
	return nil, activityToOutput(*activity, h.now()), nil
}

type CompleteActivityInput struct {
	ID        string `json:"id" jsonschema:"Activity ID (required)"`
	Completed *bool  `json:"completed,omitempty" jsonschema:"Set false to reopen (default true)"`
}

func (h *ActivityHandlers) CompleteActivity(ctx context.Context, _ *mcp.CallToolRequest, input CompleteActivityInput) (*mcp.CallToolResult, ActivityOutput, error) {
	done := true
	if input.Completed != nil {
		done = *input.Completed
	}
	activity, err := h.client.Activities.SetCompleted(ctx, input.ID, done)
	if err != nil {
		return nil, ActivityOutput{}, fmt.Errorf("failed to update activity: %w", err)
	}
	return nil, activityToOutput(*activity, h.now()), nil
}

type AddNoteInput struct {
	ContactID  string `json:"contact_id,omitempty" jsonschema:"Attach the note to this contact"`
	ActivityID string `json:"activity_id,omitempty" jsonschema:"Attach the note to this activity"`
	Content    string `json:"content" jsonschema:"Note text (required)"`
}

type NoteOutput struct {
	ID         string `json:"id"`
	ContactID  string `json:"contact_id,omitempty"`
	ActivityID string `json:"activity_id,omitempty"`
	Content    string `json:"content"`
	AuthorName string `json:"author_name,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func (h *ActivityHandlers) AddNote(ctx context.Context, _ *mcp.CallToolRequest, input AddNoteInput) (*mcp.CallToolResult, NoteOutput, error) {
	var (
		svc    *api.NoteService
		parent string
	)
	switch {
	case input.ContactID != "" && input.ActivityID != "":
		return nil, NoteOutput{}, fmt.Errorf("give either contact_id or activity_id, not both")
	case input.ContactID != "":
		svc, parent = h.client.ContactNotes, input.ContactID
	case input.ActivityID != "":
		svc, parent = h.client.ActivityNotes, input.ActivityID
	default:
		return nil, NoteOutput{}, fmt.Errorf("contact_id or activity_id is required")
	}

	note, err := svc.Create(ctx, parent, input.Content)
	if err != nil {
		return nil, NoteOutput{}, fmt.Errorf("failed to add note: %w", err)
	}
	return nil, NoteOutput{
		ID:         note.ID,
		ContactID:  note.ContactID,
		ActivityID: note.ActivityID,
		Content:    note.Content,
		AuthorName: note.AuthorName,
		CreatedAt:  formatTime(&note.CreatedAt),
	}, nil
}
