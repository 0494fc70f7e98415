// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements find_contacts, add_contact, update_contact, set_contact_status, delete_contact and list_tags
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

type ContactHandlers struct {
	client *api.Client
}

func NewContactHandlers(client *api.Client) *ContactHandlers {
	return &ContactHandlers{client: client}
}

type FindContactsInput struct {
	Query     string   `json:"query,omitempty" jsonschema:"Search query (name, email or company)"`
	Status    string   `json:"status,omitempty" jsonschema:"Filter by status: hot, warm, cold, allGood"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Only contacts carrying every one of these tags"`
	CompanyID string   `json:"company_id,omitempty" jsonschema:"Filter by company ID"`
	Page      int      `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	Limit     int      `json:"limit,omitempty" jsonschema:"Page size (default 20)"`
}

type FindContactsOutput struct {
	Contacts   []ContactOutput `json:"contacts"`
	Pagination PageOutput      `json:"pagination"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	f := api.ContactFilter{
		ListParams: api.ListParams{Page: input.Page, Limit: input.Limit, Search: input.Query},
		Status:     models.ContactStatus(input.Status),
		Tags:       input.Tags,
		CompanyID:  input.CompanyID,
	}
	page, err := h.client.Contacts.List(ctx, f)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}

	out := FindContactsOutput{Contacts: make([]ContactOutput, len(page.Items)), Pagination: pageToOutput(page.Pagination)}
	for i, c := range page.Items {
		out.Contacts[i] = contactToOutput(c)
	}
	return nil, out, nil
}

type AddContactInput struct {
	Name      string   `json:"name" jsonschema:"Contact name (required)"`
	Email     string   `json:"email,omitempty" jsonschema:"Contact email address"`
	Phone     string   `json:"phone,omitempty" jsonschema:"Contact phone number"`
	Position  string   `json:"position,omitempty" jsonschema:"Job title"`
	CompanyID string   `json:"company_id,omitempty" jsonschema:"Company ID"`
	Status    string   `json:"status,omitempty" jsonschema:"hot, warm, cold or allGood (default allGood)"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Tags"`
	Notes     string   `json:"notes,omitempty" jsonschema:"Additional notes about the contact"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact, err := h.client.Contacts.Create(ctx, api.ContactInput{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Position:  input.Position,
		CompanyID: input.CompanyID,
		Status:    models.ContactStatus(input.Status),
		Tags:      input.Tags,
		Notes:     input.Notes,
	})
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(*contact), nil
}

type UpdateContactInput struct {
	ID        string   `json:"id" jsonschema:"Contact ID (required)"`
	Name      string   `json:"name,omitempty" jsonschema:"Updated contact name"`
	Email     string   `json:"email,omitempty" jsonschema:"Updated email address"`
	Phone     string   `json:"phone,omitempty" jsonschema:"Updated phone number"`
	Position  string   `json:"position,omitempty" jsonschema:"Updated job title"`
	CompanyID string   `json:"company_id,omitempty" jsonschema:"Updated company ID"`
	Tags      []string `json:"tags,omitempty" jsonschema:"Replacement tag list"`
	Notes     string   `json:"notes,omitempty" jsonschema:"Updated notes"`
}

func (h *ContactHandlers) UpdateContact(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID == "" {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}

	u := api.ContactUpdate{
		Name:      nonEmpty(input.Name),
		Email:     nonEmpty(input.Email),
		Phone:     nonEmpty(input.Phone),
		Position:  nonEmpty(input.Position),
		CompanyID: nonEmpty(input.CompanyID),
		Notes:     nonEmpty(input.Notes),
	}
	if input.Tags != nil {
		tags := models.NormalizeTags(input.Tags)
		u.Tags = &tags
	}

	contact, err := h.client.Contacts.Update(ctx, input.ID, u)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(*contact), nil
}

type SetContactStatusInput struct {
	ID     string `json:"id" jsonschema:"Contact ID (required)"`
	Status string `json:"status" jsonschema:"hot, warm, cold or allGood"`
}

func (h *ContactHandlers) SetContactStatus(ctx context.Context, _ *mcp.CallToolRequest, input SetContactStatusInput) (*mcp.CallToolResult, ContactOutput, error) {
	status, ok := models.ParseContactStatus(input.Status)
	if !ok {
		return nil, ContactOutput{}, fmt.Errorf("invalid status: %s (valid: hot, warm, cold, allGood)", input.Status)
	}
	contact, err := h.client.Contacts.UpdateStatus(ctx, input.ID, status)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update status: %w", err)
	}
	return nil, contactToOutput(*contact), nil
}

type DeleteInput struct {
	ID string `json:"id" jsonschema:"ID of the record to delete (required)"`
}

type DeleteOutput struct {
	Deleted string `json:"deleted"`
}

func (h *ContactHandlers) DeleteContact(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := h.client.Contacts.Delete(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil, DeleteOutput{Deleted: input.ID}, nil
}

type ListTagsInput struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"Only tags starting with this text"`
}

type ListTagsOutput struct {
	Tags []string `json:"tags"`
}

func (h *ContactHandlers) ListTags(ctx context.Context, _ *mcp.CallToolRequest, input ListTagsInput) (*mcp.CallToolResult, ListTagsOutput, error) {
	tags, err := h.client.Contacts.SuggestTags(ctx, nil, input.Prefix, 0)
	if err != nil {
		return nil, ListTagsOutput{}, fmt.Errorf("failed to list tags: %w", err)
	}
	return nil, ListTagsOutput{Tags: tags}, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
