// ABOUTME: Tests for the TUI model driven through Update with key and load messages
// ABOUTME: Commands are executed synchronously against a live reference backend
package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/config"
	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/server"
	"github.com/Duckiduc/omw-crm-sub001/validate"
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

// step runs cmd and every command it leads to, feeding results back into Update.
func step(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				m = step(t, m, c)
			}
			return m
		}
		next, c := m.Update(msg)
		m = next.(Model)
		cmd = c
	}
	return m
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func started(t *testing.T, client *api.Client) Model {
	t.Helper()
	m := NewModel(context.Background(), client)
	return step(t, m, m.Init())
}

func gotoTab(t *testing.T, m Model, e EntityType) Model {
	t.Helper()
	for m.current() != e {
		var cmd tea.Cmd
		m, cmd = press(m, "tab")
		m = step(t, m, cmd)
	}
	return m
}

func TestInitLoadsLookupsAndFirstPage(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	_, err := client.Contacts.Create(ctx, api.ContactInput{Name: "Jane Doe", Tags: models.TagSet{"vip"}})
	require.NoError(t, err)

	m := started(t, client)

	assert.Len(t, m.contacts, 1)
	assert.Len(t, m.stages, 6)
	assert.Equal(t, []string{"vip"}, m.knownTags)
	assert.False(t, m.loading)

	view := m.View()
	assert.Contains(t, view, "Jane Doe")
	assert.Contains(t, view, "Page 1 of 1 (1 total)")
}

func TestUsersTabOnlyForAdmins(t *testing.T) {
	srv := startBackend(t)
	admin := registered(t, srv, "alice")
	member := registered(t, srv, "bob")

	assert.Contains(t, NewModel(context.Background(), admin).tabs, EntityUsers)
	assert.NotContains(t, NewModel(context.Background(), member).tabs, EntityUsers)
}

func TestStaleReplyIsDropped(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	_, err := client.Contacts.Create(context.Background(), api.ContactInput{Name: "Jane Doe"})
	require.NoError(t, err)
	m := started(t, client)

	next, _ := m.Update(loadedMsg{seq: m.seq - 1, apply: func(m *Model) { m.contacts = nil }})
	m = next.(Model)
	assert.Len(t, m.contacts, 1)

	next, _ = m.Update(loadedMsg{seq: m.seq - 1, err: errors.New("boom")})
	assert.NoError(t, next.(Model).err)
}

func TestSwitchingTabCancelsInFlightLoad(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	m := started(t, client)

	entered := make(chan struct{})
	cmd := m.run(func(ctx context.Context) (func(*Model), error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	<-entered

	m, next := press(m, "tab")
	assert.Equal(t, EntityCompanies, m.current())

	msg := <-done
	assert.ErrorIs(t, msg.(loadedMsg).err, context.Canceled)

	m = step(t, m, func() tea.Msg { return msg })
	assert.NoError(t, m.err)

	m = step(t, m, next)
	assert.False(t, m.loading)
}

func TestPagingThroughContacts(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	for i := 0; i < pageSize+5; i++ {
		_, err := client.Contacts.Create(ctx, api.ContactInput{Name: fmt.Sprintf("Contact %02d", i)})
		require.NoError(t, err)
	}
	m := started(t, client)
	assert.Len(t, m.contacts, pageSize)
	assert.Contains(t, m.View(), "Page 1 of 2")

	m, cmd := press(m, "right")
	m = step(t, m, cmd)
	assert.Len(t, m.contacts, 5)
	assert.Contains(t, m.View(), "Page 2 of 2")

	m, cmd = press(m, "right")
	assert.Nil(t, cmd)
}

func TestSearchNarrowsList(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	for _, name := range []string{"Jane Doe", "John Roe"} {
		_, err := client.Contacts.Create(ctx, api.ContactInput{Name: name})
		require.NoError(t, err)
	}
	m := started(t, client)

	m, _ = press(m, "/")
	require.True(t, m.searching)
	m = typeText(m, "jane")
	m, cmd := press(m, "enter")
	m = step(t, m, cmd)

	require.Len(t, m.contacts, 1)
	assert.Equal(t, "Jane Doe", m.contacts[0].Name)
	assert.Contains(t, m.View(), `search "jane"`)
}

func TestContactFormShowsFieldErrors(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	m := started(t, client)

	m, _ = press(m, "n")
	require.Equal(t, ViewEdit, m.viewMode)

	m, cmd := press(m, "enter")
	m = step(t, m, cmd)
	assert.Equal(t, ViewEdit, m.viewMode)
	assert.Equal(t, "Name is required", m.form.errs["name"])
	assert.Contains(t, m.View(), "Name is required")
	assert.NoError(t, m.err)
}

func TestCreateContactFromForm(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	m := started(t, client)

	m, _ = press(m, "n")
	m = typeText(m, "Jane Doe")
	m, cmd := press(m, "enter")
	m = step(t, m, cmd)

	assert.Equal(t, ViewList, m.viewMode)
	assert.Nil(t, m.form)
	require.Len(t, m.contacts, 1)
	assert.Equal(t, models.StatusAllGood, m.contacts[0].Status)
	assert.Contains(t, m.View(), "Created contact Jane Doe")
}

func TestDealFormRejectsUnknownStage(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	m := gotoTab(t, started(t, client), EntityDeals)

	m, _ = press(m, "n")
	assert.Equal(t, "Lead", m.form.values()["stageId"])
	m = typeText(m, "Big deal")
	m.form.inputs[3].SetValue("Won somehow")

	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "Stage not found", m.form.errs["stageId"])

	m.form.inputs[3].SetValue("proposal")
	m, cmd = press(m, "enter")
	m = step(t, m, cmd)
	require.Len(t, m.deals, 1)
	assert.Equal(t, "proposal", m.deals[0].StageID)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	_, err := client.Contacts.Create(context.Background(), api.ContactInput{Name: "Jane Doe"})
	require.NoError(t, err)
	m := started(t, client)

	m, _ = press(m, "d")
	require.Equal(t, ViewConfirmDelete, m.viewMode)
	assert.Contains(t, m.View(), "Are you sure you want to delete this contact?")

	m, _ = press(m, "n")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Len(t, m.contacts, 1)

	m, _ = press(m, "d")
	m, cmd := press(m, "y")
	m = step(t, m, cmd)
	assert.Equal(t, ViewList, m.viewMode)
	assert.Empty(t, m.contacts)
}

func TestCompanyWithContactsShowsRetryBanner(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	co, err := client.Companies.Create(ctx, api.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = client.Contacts.Create(ctx, api.ContactInput{Name: "Jane Doe", CompanyID: co.ID})
	require.NoError(t, err)

	m := gotoTab(t, started(t, client), EntityCompanies)
	m, _ = press(m, "d")
	m, cmd := press(m, "y")
	m = step(t, m, cmd)

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "company still has contacts")

	m, _ = press(m, "esc")
	assert.Contains(t, m.View(), "press r to retry")
	m, cmd = press(m, "r")
	m = step(t, m, cmd)
	assert.NoError(t, m.err)
	assert.Len(t, m.companies, 1)
}

func TestActivityFiltersAndToggle(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	_, err := client.Activities.Create(ctx, api.ActivityInput{Type: models.ActivityCall, Subject: "Late call", DueDate: "2020-01-01"})
	require.NoError(t, err)
	_, err = client.Activities.Create(ctx, api.ActivityInput{Type: models.ActivityTask, Subject: "Future task", DueDate: "2099-01-01"})
	require.NoError(t, err)

	m := gotoTab(t, started(t, client), EntityActivities)
	assert.Len(t, m.activities, 2)

	var cmd tea.Cmd
	for m.filterValue() != "overdue" {
		m, cmd = press(m, "f")
		m = step(t, m, cmd)
	}
	require.Len(t, m.activities, 1)
	assert.Equal(t, "Late call", m.activities[0].Subject)
	assert.Contains(t, m.View(), "OVERDUE")

	m, cmd = press(m, "x")
	m = step(t, m, cmd)
	assert.Contains(t, m.View(), `Completed "Late call"`)
	assert.Empty(t, m.activities)
}

func TestSharesTabFiltersByResourceType(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	bob := registered(t, srv, "bob")
	ctx := context.Background()

	contact, err := client.Contacts.Create(ctx, api.ContactInput{Name: "Jane Doe"})
	require.NoError(t, err)
	stages, err := client.Deals.Stages(ctx)
	require.NoError(t, err)
	deal, err := client.Deals.Create(ctx, api.DealInput{Title: "Renewal", Currency: "USD", StageID: stages[0].ID})
	require.NoError(t, err)
	for _, in := range []api.ShareInput{
		{ResourceType: models.ResourceContact, ResourceID: contact.ID},
		{ResourceType: models.ResourceDeal, ResourceID: deal.ID},
	} {
		in.SharedWithUserID = bob.Session().User().ID
		in.Permission = models.PermissionView
		_, err := client.Shares.Create(ctx, in)
		require.NoError(t, err)
	}

	m := gotoTab(t, started(t, client), EntityShares)
	assert.Len(t, m.shares, 2)

	var cmd tea.Cmd
	for m.shareTypeValue() != models.ResourceDeal {
		m, cmd = press(m, "t")
		m = step(t, m, cmd)
	}
	require.Len(t, m.shares, 1)
	assert.Equal(t, deal.ID, m.shares[0].ResourceID)
	assert.Contains(t, m.View(), "type deal")

	m, cmd = press(m, "t")
	m = step(t, m, cmd)
	assert.Equal(t, models.ResourceType(""), m.shareTypeValue())
	assert.Len(t, m.shares, 2)
}

func TestShareFormResolvesEmail(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	registered(t, srv, "bob")
	_, err := client.Contacts.Create(context.Background(), api.ContactInput{Name: "Jane Doe"})
	require.NoError(t, err)
	m := started(t, client)

	m, _ = press(m, "s")
	require.Equal(t, ViewShare, m.viewMode)
	m = typeText(m, "nobody@example.com")
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "User not found", m.form.errs["sharedWithUserId"])

	m.form.inputs[0].SetValue("BOB@example.com")
	m, cmd = press(m, "enter")
	m = step(t, m, cmd)
	assert.Equal(t, ViewList, m.viewMode)
	assert.Contains(t, m.View(), "Shared with bob (view)")

	m, _ = press(m, "s")
	m = typeText(m, "bob@example.com")
	m, cmd = press(m, "enter")
	m = step(t, m, cmd)
	assert.Equal(t, ViewShare, m.viewMode)
	require.Error(t, m.err)
	assert.Equal(t, api.AlreadySharedMessage, m.err.Error())

	m, _ = press(m, "esc")
	m = gotoTab(t, m, EntityShares)
	require.Len(t, m.shares, 1)
	assert.Equal(t, models.ShareByMe, m.shares[0].Direction)
}

func TestDetailViewLoadsNotes(t *testing.T) {
	client := registered(t, startBackend(t), "alice")
	ctx := context.Background()
	c, err := client.Contacts.Create(ctx, api.ContactInput{Name: "Jane Doe", Email: "jane@acme.com"})
	require.NoError(t, err)
	_, err = client.ContactNotes.Create(ctx, c.ID, "Met at the conference")
	require.NoError(t, err)

	m := started(t, client)
	m, cmd := press(m, "enter")
	m = step(t, m, cmd)

	require.Equal(t, ViewDetail, m.viewMode)
	view := m.View()
	assert.Contains(t, view, "jane@acme.com")
	assert.Contains(t, view, "Notes (1)")
	assert.Contains(t, view, "Met at the conference")

	m, _ = press(m, "e")
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Equal(t, "Jane Doe", m.form.values()["name"])

	m, _ = press(m, "esc")
	assert.Equal(t, ViewDetail, m.viewMode)
}

func TestCompleteTag(t *testing.T) {
	known := []string{"vip", "vendor", "lead"}
	assert.Equal(t, "lead, vip, ", completeTag("lead, vi", known))
	assert.Equal(t, "lead, ", completeTag("le", known))
	assert.Equal(t, "zzz", completeTag("zzz", known))
}

func TestEditFormSendsOnlyChangedFields(t *testing.T) {
	f := newForm("Edit Jane", validate.ContactForm, map[string]string{"name": "Jane", "companyId": "co-1"})
	f.orig = f.values()
	f.inputs[0].SetValue("Janet")
	v := f.values()

	require.NotNil(t, f.changed(v, "name"))
	assert.Equal(t, "Janet", *f.changed(v, "name"))
	assert.Nil(t, f.changed(v, "companyId"))

	created := newForm("New Contact", validate.ContactForm, nil)
	require.NotNil(t, created.changed(created.values(), "companyId"))
}
