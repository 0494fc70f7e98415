// ABOUTME: Tests for the REST backend using gin test mode and a temporary database
// ABOUTME: Includes end-to-end runs of the api client against the live handler
package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/config"
	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

func setupServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "crm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewServer(database, config.ServerConfig{}), database
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

// registerUser signs up through the API and returns the bearer token.
func registerUser(t *testing.T, h http.Handler, name string) (string, map[string]any) {
	t.Helper()
	status, body := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": name + "@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["token"].(string), body["user"].(map[string]any)
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)
	status, body := doJSON(t, s.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	_, first := registerUser(t, h, "alice")
	_, second := registerUser(t, h, "bob")
	assert.Equal(t, "admin", first["role"])
	assert.Equal(t, "user", second["role"])

	status, body := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "ALICE@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", body["error"])
}

func TestLoginAndMe(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	registerUser(t, h, "alice")

	status, body := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", body["error"])

	status, body = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)

	status, body = doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice@example.com", body["user"].(map[string]any)["email"])

	status, _ = doJSON(t, h, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRequired(t *testing.T) {
	s, _ := setupServer(t)
	status, body := doJSON(t, s.Handler(), http.MethodGet, "/api/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication required", body["error"])
}

func TestRequestIDEchoed(t *testing.T) {
	s, _ := setupServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func TestCreateContactValidation(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	token, _ := registerUser(t, h, "alice")

	status, body := doJSON(t, h, http.MethodPost, "/api/contacts", token, map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["error"])
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
}

func TestContactStatusPatch(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	token, _ := registerUser(t, h, "alice")

	status, body := doJSON(t, h, http.MethodPost, "/api/contacts", token, map[string]any{"name": "Jane"})
	require.Equal(t, http.StatusCreated, status)
	contact := body["contact"].(map[string]any)
	assert.Equal(t, "allGood", contact["status"])
	id := contact["id"].(string)

	status, body = doJSON(t, h, http.MethodPatch, "/api/contacts/"+id+"/status", token, map[string]string{"status": "hot"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hot", body["contact"].(map[string]any)["status"])

	status, _ = doJSON(t, h, http.MethodPatch, "/api/contacts/"+id+"/status", token, map[string]string{"status": "lukewarm"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSharedContactPermissions(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	alice, _ := registerUser(t, h, "alice")
	bob, bobUser := registerUser(t, h, "bob")

	_, body := doJSON(t, h, http.MethodPost, "/api/contacts", alice, map[string]any{"name": "Jane"})
	id := body["contact"].(map[string]any)["id"].(string)

	status, body := doJSON(t, h, http.MethodGet, "/api/contacts/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Contact not found", body["error"])

	status, _ = doJSON(t, h, http.MethodPost, "/api/shares", alice, map[string]any{
		"resourceType": "contact", "resourceId": id, "sharedWithUserId": bobUser["id"], "permission": "view",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, h, http.MethodGet, "/api/contacts/"+id, bob, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, h, http.MethodPut, "/api/contacts/"+id, bob, map[string]any{"name": "Janet"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doJSON(t, h, http.MethodDelete, "/api/contacts/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = doJSON(t, h, http.MethodGet, "/api/shares/shared-with-me", bob, nil)
	require.Equal(t, http.StatusOK, status)
	shares := body["shares"].([]any)
	require.Len(t, shares, 1)
	assert.Equal(t, "Jane", shares[0].(map[string]any)["resourceName"])
}

func TestShareRules(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	alice, aliceUser := registerUser(t, h, "alice")
	bob, bobUser := registerUser(t, h, "bob")

	_, body := doJSON(t, h, http.MethodPost, "/api/deals", alice, map[string]any{"title": "Big", "stageId": "lead", "value": 1000})
	dealID := body["deal"].(map[string]any)["id"].(string)

	share := map[string]any{"resourceType": "deal", "resourceId": dealID, "sharedWithUserId": aliceUser["id"], "permission": "edit"}
	status, _ := doJSON(t, h, http.MethodPost, "/api/shares", alice, share)
	assert.Equal(t, http.StatusBadRequest, status)

	share["sharedWithUserId"] = "missing"
	status, _ = doJSON(t, h, http.MethodPost, "/api/shares", alice, share)
	assert.Equal(t, http.StatusBadRequest, status)

	share["sharedWithUserId"] = bobUser["id"]
	status, body = doJSON(t, h, http.MethodPost, "/api/shares", alice, share)
	require.Equal(t, http.StatusCreated, status)
	shareID := body["share"].(map[string]any)["id"].(string)

	status, body = doJSON(t, h, http.MethodPost, "/api/shares", alice, share)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Resource already shared with this user", body["error"])

	status, _ = doJSON(t, h, http.MethodPut, "/api/deals/"+dealID, bob, map[string]any{"probability": 60})
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, h, http.MethodDelete, "/api/shares/"+shareID, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doJSON(t, h, http.MethodDelete, "/api/shares/"+shareID, alice, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, h, http.MethodGet, "/api/deals/"+dealID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDealValidation(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	token, _ := registerUser(t, h, "alice")

	status, body := doJSON(t, h, http.MethodPost, "/api/deals", token, map[string]any{"title": "X", "stageId": "lead", "probability": 150})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["fields"], "probability")

	status, body = doJSON(t, h, http.MethodPost, "/api/deals", token, map[string]any{"title": "X", "stageId": "nowhere"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["fields"], "stageId")

	status, body = doJSON(t, h, http.MethodGet, "/api/deals/stages", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["stages"], 6)
}

func TestActivityCompletedFilter(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	token, _ := registerUser(t, h, "alice")

	doJSON(t, h, http.MethodPost, "/api/activities", token, map[string]any{"type": "call", "subject": "Call", "dueDate": "2026-01-02 10:00"})
	doJSON(t, h, http.MethodPost, "/api/activities", token, map[string]any{"type": "task", "subject": "Done", "completed": true})

	status, body := doJSON(t, h, http.MethodGet, "/api/activities?completed=false", token, nil)
	require.Equal(t, http.StatusOK, status)
	items := body["activities"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Call", items[0].(map[string]any)["subject"])
	assert.NotEmpty(t, items[0].(map[string]any)["dueDate"])

	status, _ = doJSON(t, h, http.MethodGet, "/api/activities?completed=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNotesAuthorOnly(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	alice, _ := registerUser(t, h, "alice")
	bob, bobUser := registerUser(t, h, "bob")

	_, body := doJSON(t, h, http.MethodPost, "/api/contacts", alice, map[string]any{"name": "Jane"})
	contactID := body["contact"].(map[string]any)["id"].(string)
	doJSON(t, h, http.MethodPost, "/api/shares", alice, map[string]any{
		"resourceType": "contact", "resourceId": contactID, "sharedWithUserId": bobUser["id"], "permission": "view",
	})

	status, body := doJSON(t, h, http.MethodPost, "/api/contact-notes", alice, map[string]any{"contactId": contactID, "content": "Met at expo"})
	require.Equal(t, http.StatusCreated, status)
	noteID := body["note"].(map[string]any)["id"].(string)

	status, body = doJSON(t, h, http.MethodGet, "/api/contact-notes?contactId="+contactID, bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["notes"], 1)

	status, _ = doJSON(t, h, http.MethodPut, "/api/contact-notes/"+noteID, bob, map[string]any{"content": "edit"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doJSON(t, h, http.MethodDelete, "/api/contact-notes/"+noteID, alice, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, h, http.MethodGet, "/api/contact-notes", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminUsers(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()
	admin, adminUser := registerUser(t, h, "alice")
	bob, _ := registerUser(t, h, "bob")

	status, _ := doJSON(t, h, http.MethodGet, "/api/admin/users", bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doJSON(t, h, http.MethodPost, "/api/admin/users", admin, map[string]any{
		"name": "Carol", "email": "carol@example.com", "password": "password123", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, status)
	carolID := body["user"].(map[string]any)["id"].(string)

	status, body = doJSON(t, h, http.MethodGet, "/api/admin/users?role=admin", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["users"], 2)

	status, body = doJSON(t, h, http.MethodPut, "/api/admin/users/"+carolID, admin, map[string]any{"role": "user"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user", body["user"].(map[string]any)["role"])

	status, _ = doJSON(t, h, http.MethodDelete, "/api/admin/users/"+adminUser["id"].(string), admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = doJSON(t, h, http.MethodDelete, "/api/admin/users/"+carolID, admin, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, h, http.MethodGet, "/api/admin/users/"+carolID, admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// liveClient starts the backend and returns a client logged in as a new user.
func liveClient(t *testing.T, name string, srv *httptest.Server) *api.Client {
	t.Helper()
	c := api.NewClient(srv.URL+"/api", nil)
	_, err := c.Auth.Register(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	return c
}

func startLive(t *testing.T) *httptest.Server {
	t.Helper()
	s, _ := setupServer(t)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientContactsEndToEnd(t *testing.T) {
	srv := startLive(t)
	c := liveClient(t, "alice", srv)
	ctx := context.Background()

	for i := 0; i < 45; i++ {
		in := api.ContactInput{Name: fmt.Sprintf("Jane %02d", i)}
		switch {
		case i%3 == 0:
			in.Tags = models.TagSet{"vip", "lead"}
		case i%3 == 1:
			in.Tags = models.TagSet{"vip"}
		}
		created, err := c.Contacts.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAllGood, created.Status)
	}

	page, err := c.Contacts.List(ctx, api.ContactFilter{ListParams: api.ListParams{Page: 2, Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, "Page 2 of 3", page.Pagination.Label())
	assert.Len(t, page.Items, 20)

	both, err := c.Contacts.List(ctx, api.ContactFilter{Tags: []string{"vip", "lead"}, ListParams: api.ListParams{Limit: 100}})
	require.NoError(t, err)
	assert.Equal(t, 15, both.Pagination.Total)

	tags, err := c.Contacts.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lead", "vip"}, tags)
}

func TestClientCompanyDeleteConflict(t *testing.T) {
	srv := startLive(t)
	c := liveClient(t, "alice", srv)
	ctx := context.Background()

	co, err := c.Companies.Create(ctx, api.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	_, err = c.Contacts.Create(ctx, api.ContactInput{Name: "Jane", CompanyID: co.ID})
	require.NoError(t, err)

	err = c.Companies.Delete(ctx, co.ID)
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.Contains(t, err.Error(), "Cannot delete company with associated contacts")
}

func TestClientDuplicateShareMessage(t *testing.T) {
	srv := startLive(t)
	alice := liveClient(t, "alice", srv)
	bob := liveClient(t, "bob", srv)
	ctx := context.Background()

	contact, err := alice.Contacts.Create(ctx, api.ContactInput{Name: "Jane"})
	require.NoError(t, err)
	in := api.ShareInput{
		ResourceType:     models.ResourceContact,
		ResourceID:       contact.ID,
		SharedWithUserID: bob.Session().User().ID,
		Permission:       models.PermissionView,
	}
	_, err = alice.Shares.Create(ctx, in)
	require.NoError(t, err)

	_, err = alice.Shares.Create(ctx, in)
	require.Error(t, err)
	assert.Equal(t, api.AlreadySharedMessage, err.(*api.Error).Message)

	shares, err := bob.Shares.List(ctx, api.ShareFilter{Direction: models.ShareAll})
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, models.ShareWithMe, shares[0].Direction)
}

func TestSharedEditorKeepsCompanyLinks(t *testing.T) {
	srv := startLive(t)
	alice := liveClient(t, "alice", srv)
	bob := liveClient(t, "bob", srv)
	ctx := context.Background()
	bobID := bob.Session().User().ID

	co, err := alice.Companies.Create(ctx, api.CompanyInput{Name: "Acme"})
	require.NoError(t, err)
	contact, err := alice.Contacts.Create(ctx, api.ContactInput{Name: "Jane", CompanyID: co.ID})
	require.NoError(t, err)
	stages, err := alice.Deals.Stages(ctx)
	require.NoError(t, err)
	deal, err := alice.Deals.Create(ctx, api.DealInput{
		Title: "Renewal", Currency: "USD", StageID: stages[0].ID, ContactID: contact.ID, CompanyID: co.ID,
	})
	require.NoError(t, err)
	activity, err := alice.Activities.Create(ctx, api.ActivityInput{
		Type: models.ActivityCall, Subject: "Kickoff", ContactID: contact.ID, CompanyID: co.ID, DealID: deal.ID,
	})
	require.NoError(t, err)

	for _, r := range []struct {
		kind models.ResourceType
		id   string
	}{{models.ResourceContact, contact.ID}, {models.ResourceDeal, deal.ID}, {models.ResourceActivity, activity.ID}} {
		_, err := alice.Shares.Create(ctx, api.ShareInput{
			ResourceType: r.kind, ResourceID: r.id, SharedWithUserID: bobID, Permission: models.PermissionEdit,
		})
		require.NoError(t, err)
	}

	updated, err := bob.Contacts.Update(ctx, contact.ID, api.ContactUpdate{Name: api.String("Janet"), CompanyID: api.String(co.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.Name)
	assert.Equal(t, co.ID, updated.CompanyID)

	d, err := bob.Deals.Update(ctx, deal.ID, api.DealUpdate{
		Title: api.String("Renewal 2027"), CompanyID: api.String(co.ID), ContactID: api.String(contact.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renewal 2027", d.Title)

	a, err := bob.Activities.Update(ctx, activity.ID, api.ActivityUpdate{
		Subject: api.String("Kickoff call"), CompanyID: api.String(co.ID), DealID: api.String(deal.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kickoff call", a.Subject)

	// Moving the record to a company bob cannot see is still refused.
	mine, err := bob.Companies.Create(ctx, api.CompanyInput{Name: "Bobco"})
	require.NoError(t, err)
	_, err = bob.Contacts.Update(ctx, contact.ID, api.ContactUpdate{CompanyID: api.String(mine.ID)})
	require.NoError(t, err)
	other, err := alice.Companies.Create(ctx, api.CompanyInput{Name: "Hidden"})
	require.NoError(t, err)
	_, err = bob.Contacts.Update(ctx, contact.ID, api.ContactUpdate{CompanyID: api.String(other.ID)})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Company not found", apiErr.Fields["companyId"])
}
