// ABOUTME: Company MCP tool handlers
// ABOUTME: Implements find_companies, add_company and delete_company
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
)

type CompanyHandlers struct {
	client *api.Client
}

func NewCompanyHandlers(client *api.Client) *CompanyHandlers {
	return &CompanyHandlers{client: client}
}

type FindCompaniesInput struct {
	Query    string `json:"query,omitempty" jsonschema:"Search query (company name)"`
	Industry string `json:"industry,omitempty" jsonschema:"Filter by industry"`
	Page     int    `json:"page,omitempty" jsonschema:"Page number (default 1)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Page size (default 20)"`
}

type FindCompaniesOutput struct {
	Companies  []CompanyOutput `json:"companies"`
	Pagination PageOutput      `json:"pagination"`
}

func (h *CompanyHandlers) FindCompanies(ctx context.Context, _ *mcp.CallToolRequest, input FindCompaniesInput) (*mcp.CallToolResult, FindCompaniesOutput, error) {
	page, err := h.client.Companies.List(ctx, api.CompanyFilter{
		ListParams: api.ListParams{Page: input.Page, Limit: input.Limit, Search: input.Query},
		Industry:   input.Industry,
	})
	if err != nil {
		return nil, FindCompaniesOutput{}, fmt.Errorf("failed to find companies: %w", err)
	}

	out := FindCompaniesOutput{Companies: make([]CompanyOutput, len(page.Items)), Pagination: pageToOutput(page.Pagination)}
	for i, c := range page.Items {
		out.Companies[i] = companyToOutput(c)
	}
	return nil, out, nil
}

type AddCompanyInput struct {
	Name     string `json:"name" jsonschema:"Company name (required)"`
	Industry string `json:"industry,omitempty" jsonschema:"Industry"`
	Website  string `json:"website,omitempty" jsonschema:"Website starting with http:// or https://"`
	Phone    string `json:"phone,omitempty" jsonschema:"Phone number"`
	Address  string `json:"address,omitempty" jsonschema:"Postal address"`
	Notes    string `json:"notes,omitempty" jsonschema:"Notes about the company"`
}

func (h *CompanyHandlers) AddCompany(ctx context.Context, _ *mcp.CallToolRequest, input AddCompanyInput) (*mcp.CallToolResult, CompanyOutput, error) {
	company, err := h.client.Companies.Create(ctx, api.CompanyInput{
		Name:     input.Name,
		Industry: input.Industry,
		Website:  input.Website,
		Phone:    input.Phone,
		Address:  input.Address,
		Notes:    input.Notes,
	})
	if err != nil {
		return nil, CompanyOutput{}, fmt.Errorf("failed to create company: %w", err)
	}
	return nil, companyToOutput(*company), nil
}

func (h *CompanyHandlers) DeleteCompany(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := h.client.Companies.Delete(ctx, input.ID); err != nil {
		if api.IsConflict(err) {
			return nil, DeleteOutput{}, fmt.Errorf("company still has contacts; move or delete them first: %w", err)
		}
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete company: %w", err)
	}
	return nil, DeleteOutput{Deleted: input.ID}, nil
}
