// ABOUTME: Sharing MCP tool handlers
// ABOUTME: Implements list_shares, share_resource and unshare
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

type ShareHandlers struct {
	client *api.Client
}

func NewShareHandlers(client *api.Client) *ShareHandlers {
	return &ShareHandlers{client: client}
}

type ListSharesInput struct {
	Direction    string `json:"direction,omitempty" jsonschema:"all, by-me or with-me (default all)"`
	ResourceType string `json:"resource_type,omitempty" jsonschema:"contact, activity or deal"`
}

type ListSharesOutput struct {
	Shares []ShareOutput `json:"shares"`
}

func (h *ShareHandlers) ListShares(ctx context.Context, _ *mcp.CallToolRequest, input ListSharesInput) (*mcp.CallToolResult, ListSharesOutput, error) {
	shares, err := h.client.Shares.List(ctx, api.ShareFilter{
		Direction:    models.ShareDirection(input.Direction),
		ResourceType: models.ResourceType(input.ResourceType),
	})
	if err != nil {
		return nil, ListSharesOutput{}, fmt.Errorf("failed to list shares: %w", err)
	}
	out := ListSharesOutput{Shares: make([]ShareOutput, len(shares))}
	for i, s := range shares {
		out.Shares[i] = shareToOutput(s)
	}
	return nil, out, nil
}

type ShareResourceInput struct {
	ResourceType string `json:"resource_type" jsonschema:"contact, activity or deal (required)"`
	ResourceID   string `json:"resource_id" jsonschema:"ID of the record to share (required)"`
	User         string `json:"user" jsonschema:"User ID or email to share with (required)"`
	Permission   string `json:"permission,omitempty" jsonschema:"view or edit (default view)"`
	Message      string `json:"message,omitempty" jsonschema:"Optional message for the recipient"`
}

func (h *ShareHandlers) ShareResource(ctx context.Context, _ *mcp.CallToolRequest, input ShareResourceInput) (*mcp.CallToolResult, ShareOutput, error) {
	userID, err := h.resolveUser(ctx, input.User)
	if err != nil {
		return nil, ShareOutput{}, err
	}
	perm := models.Permission(input.Permission)
	if perm == "" {
		perm = models.PermissionView
	}

	share, err := h.client.Shares.Create(ctx, api.ShareInput{
		ResourceType:     models.ResourceType(input.ResourceType),
		ResourceID:       input.ResourceID,
		SharedWithUserID: userID,
		Permission:       perm,
		Message:          input.Message,
	})
	if err != nil {
		return nil, ShareOutput{}, fmt.Errorf("failed to share: %w", err)
	}
	return nil, shareToOutput(*share), nil
}

func (h *ShareHandlers) Unshare(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := h.client.Shares.Delete(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to remove share: %w", err)
	}
	return nil, DeleteOutput{Deleted: input.ID}, nil
}

// resolveUser accepts either a user ID or an email from the shareable user list.
func (h *ShareHandlers) resolveUser(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("user is required")
	}
	users, err := h.client.Shares.ShareableUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		if u.ID == ref || strings.EqualFold(u.Email, ref) {
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("no shareable user matches %q", ref)
}
