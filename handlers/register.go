// ABOUTME: Builds the MCP server with every CRM tool, resource and prompt
// ABOUTME: All handlers share one api client and therefore one session
package handlers

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Duckiduc/omw-crm-sub001/api"
)

// NewServer registers the CRM tools, resources and prompts on a fresh MCP server.
func NewServer(client *api.Client, version string) *mcp.Server {
	contacts := NewContactHandlers(client)
	companies := NewCompanyHandlers(client)
	deals := NewDealHandlers(client)
	activities := NewActivityHandlers(client)
	shares := NewShareHandlers(client)
	vizh := NewVizHandlers(client)
	resources := NewResourceHandlers(client)
	prompts := NewPromptHandlers(client)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "omw-crm",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search contacts by name, email or company with optional status and tag filters",
	}, contacts.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact to the CRM",
	}, contacts.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update an existing contact's information",
	}, contacts.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_contact_status",
		Description: "Change a contact's status to hot, warm, cold or allGood",
	}, contacts.SetContactStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_contact",
		Description: "Delete a contact you own",
	}, contacts.DeleteContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List contact tags in use, optionally filtered by prefix",
	}, contacts.ListTags)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_companies",
		Description: "Search companies by name or industry",
	}, companies.FindCompanies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_company",
		Description: "Add a new company to the CRM",
	}, companies.AddCompany)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_company",
		Description: "Delete a company that has no contacts",
	}, companies.DeleteCompany)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_deals",
		Description: "Search deals by title, stage, contact or company",
	}, deals.FindDeals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_deal",
		Description: "Create a new deal in a pipeline stage",
	}, deals.CreateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_deal",
		Description: "Update a deal including moving it to another stage",
	}, deals.UpdateDeal)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_stages",
		Description: "List the deal pipeline stages in order",
	}, deals.ListStages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_activities",
		Description: "List activities with optional type, pending and overdue filters",
	}, activities.ListActivities)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_activity",
		Description: "Log a call, email, meeting, note or task",
	}, activities.AddActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_activity",
		Description: "Mark an activity completed or reopen it",
	}, activities.CompleteActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_note",
		Description: "Add a note to a contact or an activity",
	}, activities.AddNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_shares",
		Description: "List records shared by you and with you",
	}, shares.ListShares)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "share_resource",
		Description: "Share a contact, activity or deal with another user",
	}, shares.ShareResource)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "unshare",
		Description: "Revoke a share",
	}, shares.Unshare)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the deal pipeline or a company",
	}, vizh.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "dashboard_stats",
		Description: "Totals, pipeline value and overdue activities at a glance",
	}, vizh.Dashboard)

	for _, r := range []*mcp.Resource{
		{URI: "crm://contacts", Name: "contacts", Description: "All contacts", MIMEType: "application/json"},
		{URI: "crm://companies", Name: "companies", Description: "All companies", MIMEType: "application/json"},
		{URI: "crm://deals", Name: "deals", Description: "All deals", MIMEType: "application/json"},
		{URI: "crm://pipeline", Name: "pipeline", Description: "Deals grouped by stage", MIMEType: "application/json"},
	} {
		server.AddResource(r, resources.ReadResource)
	}
	for _, t := range []*mcp.ResourceTemplate{
		{URITemplate: "crm://contacts/{id}", Name: "contact", Description: "One contact with its notes", MIMEType: "application/json"},
		{URITemplate: "crm://companies/{id}", Name: "company", Description: "One company with its contacts", MIMEType: "application/json"},
		{URITemplate: "crm://deals/{id}", Name: "deal", Description: "One deal with its activities", MIMEType: "application/json"},
	} {
		server.AddResourceTemplate(t, resources.ReadResource)
	}

	for _, p := range prompts.Prompts() {
		server.AddPrompt(p, prompts.GetPrompt)
	}

	return server
}
