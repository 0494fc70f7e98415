// ABOUTME: Tests for MCP tool, resource and prompt handlers
// ABOUTME: Runs every handler against a live reference backend through the api client
package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/config"
	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/server"
)

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	srv := httptest.NewServer(server.NewServer(database, config.ServerConfig{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func registered(t *testing.T, srv *httptest.Server, name string) *api.Client {
	t.Helper()
	c := api.NewClient(srv.URL+"/api", nil)
	_, err := c.Auth.Register(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	return c
}

func TestContactTools(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	h := NewContactHandlers(client)
	ctx := context.Background()

	_, added, err := h.AddContact(ctx, nil, AddContactInput{Name: "Jane Doe", Email: "jane@acme.com", Tags: []string{"vip", "VIP", "lead"}})
	require.NoError(t, err)
	assert.Equal(t, "allGood", added.Status)
	assert.Equal(t, []string{"vip", "lead"}, added.Tags)

	_, _, err = h.AddContact(ctx, nil, AddContactInput{Name: "John Roe"})
	require.NoError(t, err)

	_, found, err := h.FindContacts(ctx, nil, FindContactsInput{Tags: []string{"vip", "lead"}})
	require.NoError(t, err)
	require.Len(t, found.Contacts, 1)
	assert.Equal(t, "Jane Doe", found.Contacts[0].Name)
	assert.Equal(t, "Page 1 of 1", found.Pagination.Label)

	_, updated, err := h.SetContactStatus(ctx, nil, SetContactStatusInput{ID: added.ID, Status: "hot"})
	require.NoError(t, err)
	assert.Equal(t, "hot", updated.Status)

	_, _, err = h.SetContactStatus(ctx, nil, SetContactStatusInput{ID: added.ID, Status: "lukewarm"})
	assert.Error(t, err)

	_, updated, err = h.UpdateContact(ctx, nil, UpdateContactInput{ID: added.ID, Position: "CTO"})
	require.NoError(t, err)
	assert.Equal(t, "CTO", updated.Position)
	assert.Equal(t, "jane@acme.com", updated.Email)

	_, tags, err := h.ListTags(ctx, nil, ListTagsInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lead", "vip"}, tags.Tags)

	_, deleted, err := h.DeleteContact(ctx, nil, DeleteInput{ID: added.ID})
	require.NoError(t, err)
	assert.Equal(t, added.ID, deleted.Deleted)
}

func TestDeleteCompanyWithContactsFails(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	companies := NewCompanyHandlers(client)
	contacts := NewContactHandlers(client)
	ctx := context.Background()

	_, co, err := companies.AddCompany(ctx, nil, AddCompanyInput{Name: "Acme", Industry: "Software"})
	require.NoError(t, err)
	_, _, err = contacts.AddContact(ctx, nil, AddContactInput{Name: "Jane", CompanyID: co.ID})
	require.NoError(t, err)

	_, _, err = companies.DeleteCompany(ctx, nil, DeleteInput{ID: co.ID})
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))

	_, found, err := companies.FindCompanies(ctx, nil, FindCompaniesInput{Industry: "Software"})
	require.NoError(t, err)
	require.Len(t, found.Companies, 1)
	assert.Equal(t, 1, found.Companies[0].ContactCount)
}

func TestDealToolsResolveStages(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	h := NewDealHandlers(client)
	ctx := context.Background()

	_, stages, err := h.ListStages(ctx, nil, ListStagesInput{})
	require.NoError(t, err)
	require.Len(t, stages.Stages, 6)

	_, deal, err := h.CreateDeal(ctx, nil, CreateDealInput{Title: "License", Stage: "lead", Value: 1000, Probability: 20})
	require.NoError(t, err)
	assert.Equal(t, "Lead", deal.StageName)
	assert.Equal(t, "USD", deal.Currency)

	prob := 60
	_, deal, err = h.UpdateDeal(ctx, nil, UpdateDealInput{ID: deal.ID, Stage: "Negotiation", Probability: &prob})
	require.NoError(t, err)
	assert.Equal(t, "Negotiation", deal.StageName)
	assert.Equal(t, 60, deal.Probability)

	_, found, err := h.FindDeals(ctx, nil, FindDealsInput{Stage: "negotiation"})
	require.NoError(t, err)
	require.Len(t, found.Deals, 1)

	_, _, err = h.CreateDeal(ctx, nil, CreateDealInput{Title: "Nope", Stage: "won"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestActivityToolsOverdueAndNotes(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	h := NewActivityHandlers(client)
	h.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, late, err := h.AddActivity(ctx, nil, AddActivityInput{Type: "call", Subject: "Late", DueDate: "2029-06-01"})
	require.NoError(t, err)
	assert.True(t, late.Overdue)
	_, _, err = h.AddActivity(ctx, nil, AddActivityInput{Type: "task", Subject: "Later", DueDate: "2999-01-01"})
	require.NoError(t, err)

	_, list, err := h.ListActivities(ctx, nil, ListActivitiesInput{})
	require.NoError(t, err)
	assert.Len(t, list.Activities, 2)

	_, done, err := h.CompleteActivity(ctx, nil, CompleteActivityInput{ID: late.ID})
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.False(t, done.Overdue)

	_, pending, err := h.ListActivities(ctx, nil, ListActivitiesInput{Pending: true})
	require.NoError(t, err)
	require.Len(t, pending.Activities, 1)
	assert.Equal(t, "Later", pending.Activities[0].Subject)

	_, note, err := h.AddNote(ctx, nil, AddNoteInput{ActivityID: late.ID, Content: "Left a voicemail"})
	require.NoError(t, err)
	assert.Equal(t, late.ID, note.ActivityID)
	assert.Equal(t, "alice", note.AuthorName)

	_, _, err = h.AddNote(ctx, nil, AddNoteInput{Content: "orphan"})
	assert.Error(t, err)
}

func TestShareToolsByEmail(t *testing.T) {
	srv := startBackend(t)
	alice := registered(t, srv, "alice")
	bob := registered(t, srv, "bob")
	ctx := context.Background()

	contact, err := alice.Contacts.Create(ctx, api.ContactInput{Name: "Shared"})
	require.NoError(t, err)

	h := NewShareHandlers(alice)
	_, share, err := h.ShareResource(ctx, nil, ShareResourceInput{ResourceType: "contact", ResourceID: contact.ID, User: "BOB@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "view", share.Permission)
	assert.Equal(t, "by-me", share.Direction)

	_, _, err = h.ShareResource(ctx, nil, ShareResourceInput{ResourceType: "contact", ResourceID: contact.ID, User: "bob@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), api.AlreadySharedMessage)

	_, theirs, err := NewShareHandlers(bob).ListShares(ctx, nil, ListSharesInput{Direction: "with-me"})
	require.NoError(t, err)
	require.Len(t, theirs.Shares, 1)
	assert.Equal(t, "alice", theirs.Shares[0].OwnerName)

	_, _, err = h.Unshare(ctx, nil, DeleteInput{ID: share.ID})
	require.NoError(t, err)
}

func TestVizTools(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	_, err := client.Deals.Create(ctx, api.DealInput{Title: "License", StageID: "lead", Value: 2500, Probability: 50})
	require.NoError(t, err)

	h := NewVizHandlers(client)
	_, graph, err := h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline"})
	require.NoError(t, err)
	assert.Contains(t, graph.DOTSource, "License")
	assert.Positive(t, graph.EdgeCount)

	_, _, err = h.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "company"})
	assert.Error(t, err)

	_, dash, err := h.Dashboard(ctx, nil, DashboardInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, dash.TotalDeals)
	assert.InDelta(t, 1250, dash.WeightedValue, 0.001)
	assert.Contains(t, dash.Text, "OMW CRM DASHBOARD")
}

func TestReadPipelineResource(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	_, err := client.Deals.Create(ctx, api.DealInput{Title: "License", StageID: "proposal", Value: 900})
	require.NoError(t, err)

	h := NewResourceHandlers(client)
	res, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://pipeline"}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var stages []pipelineStage
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &stages))
	require.Len(t, stages, 6)
	for _, s := range stages {
		if s.ID == "proposal" {
			assert.Equal(t, 1, s.Count)
			assert.InDelta(t, 900, s.Value, 0.001)
		}
	}

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "crm://invoices"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "http://contacts"}})
	assert.Error(t, err)
}

func TestContactSummaryPrompt(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	contact, err := client.Contacts.Create(ctx, api.ContactInput{Name: "Jane Doe", Position: "CTO"})
	require.NoError(t, err)
	_, err = client.ContactNotes.Create(ctx, contact.ID, "Met at the conference")
	require.NoError(t, err)

	h := NewPromptHandlers(client)
	res, err := h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "contact-summary",
		Arguments: map[string]string{"contact_id": contact.ID},
	}})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Name: Jane Doe")
	assert.Contains(t, text, "Met at the conference")

	_, err = h.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "contact-summary"}})
	assert.Error(t, err)
}

func TestNewServerRegistersEverything(t *testing.T) {
	client := api.NewClient("http://127.0.0.1:0/api", nil)
	assert.NotNil(t, NewServer(client, "test"))
}
