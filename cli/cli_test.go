// ABOUTME: Tests for CLI commands against a live reference backend
// ABOUTME: Captures command output and checks tables, footers and field errors
package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/config"
	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
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

// capture redirects command output and optionally feeds input.
func capture(t *testing.T, input string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut, oldIn := stdout, stdin
	stdout, stdin = &buf, strings.NewReader(input)
	t.Cleanup(func() { stdout, stdin = oldOut, oldIn })
	return &buf
}

func TestCommandsRequireLogin(t *testing.T) {
	srv := startBackend(t)
	client := api.NewClient(srv.URL+"/api", nil)
	capture(t, "")

	err := ListContactsCommand(context.Background(), client, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrNotLoggedIn)
}

func TestAddContactValidationNamesFlags(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	capture(t, "")

	err := AddContactCommand(context.Background(), client, []string{"--email", "not-an-email"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name: Name is required")
	assert.Contains(t, err.Error(), "--email: Please enter a valid email address")
}

func TestContactCommandsEndToEnd(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	ctx := context.Background()
	out := capture(t, "")

	require.NoError(t, AddContactCommand(ctx, client, []string{"--name", "Jane Doe", "--tags", "vip, lead"}))
	require.NoError(t, AddContactCommand(ctx, client, []string{"--name", "John Roe", "--tags", "vip", "--status", "hot"}))
	assert.Contains(t, out.String(), "Status: allGood")

	out.Reset()
	require.NoError(t, ListContactsCommand(ctx, client, []string{"--tags", "vip,lead"}))
	assert.Contains(t, out.String(), "Jane Doe")
	assert.NotContains(t, out.String(), "John Roe")
	assert.Contains(t, out.String(), "Page 1 of 1 (1 total)")

	out.Reset()
	require.NoError(t, ListContactsCommand(ctx, client, []string{"--status", "hot"}))
	assert.Contains(t, out.String(), "John Roe")
	assert.NotContains(t, out.String(), "Jane Doe")

	out.Reset()
	require.NoError(t, TagsCommand(ctx, client, []string{"--prefix", "l"}))
	assert.Equal(t, "lead\n", out.String())
}

func TestListedIDsWorkInNextCommand(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	ctx := context.Background()
	out := capture(t, "")

	contact, err := client.Contacts.Create(ctx, api.ContactInput{Name: "Jane Doe"})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, ListContactsCommand(ctx, client, nil))
	assert.Contains(t, out.String(), contact.ID)

	out.Reset()
	require.NoError(t, GetContactCommand(ctx, client, []string{contact.ID}))
	assert.Contains(t, out.String(), "Jane Doe")
}

func TestListFooterShowsNextPage(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	ctx := context.Background()
	out := capture(t, "")

	for _, name := range []string{"Acme", "Globex", "Initech"} {
		require.NoError(t, AddCompanyCommand(ctx, client, []string{"--name", name}))
	}

	out.Reset()
	require.NoError(t, ListCompaniesCommand(ctx, client, []string{"--limit", "2"}))
	assert.Contains(t, out.String(), "Page 1 of 2 (3 total)")
	assert.Contains(t, out.String(), "Next page: --page 2")

	out.Reset()
	require.NoError(t, ListCompaniesCommand(ctx, client, []string{"--limit", "2", "--page", "2"}))
	assert.Contains(t, out.String(), "Page 2 of 2 (3 total)")
	assert.NotContains(t, out.String(), "Next page")
}

func TestDealCommandsResolveStageByName(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	ctx := context.Background()
	out := capture(t, "")

	require.NoError(t, AddDealCommand(ctx, client, []string{"--title", "Big license", "--stage", "proposal", "--value", "5000"}))
	assert.Contains(t, out.String(), "Stage: Proposal")

	out.Reset()
	require.NoError(t, ListDealsCommand(ctx, client, []string{"--stage", "Proposal"}))
	assert.Contains(t, out.String(), "Big license")

	err := AddDealCommand(ctx, client, []string{"--title", "Other", "--stage", "won"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestUnshareAsksForConfirmation(t *testing.T) {
	srv := startBackend(t)
	alice := registered(t, srv, "alice")
	bob := registered(t, srv, "bob")
	ctx := context.Background()

	contact, err := alice.Contacts.Create(ctx, api.ContactInput{Name: "Shared"})
	require.NoError(t, err)
	out := capture(t, "n\n")
	require.NoError(t, ShareCommand(ctx, alice, []string{"--type", "contact", "--id", contact.ID, "--user", "bob@example.com"}))
	assert.Contains(t, out.String(), "✓ Shared Shared with bob (view)")

	shares, err := alice.Shares.SharedByMe(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 1)

	out.Reset()
	require.NoError(t, UnshareCommand(ctx, alice, []string{shares[0].ID}))
	assert.Contains(t, out.String(), "Cancelled")

	withBob, err := bob.Shares.SharedWithMe(ctx)
	require.NoError(t, err)
	assert.Len(t, withBob, 1)

	require.NoError(t, UnshareCommand(ctx, alice, []string{"--yes", shares[0].ID}))
	withBob, err = bob.Shares.SharedWithMe(ctx)
	require.NoError(t, err)
	assert.Empty(t, withBob)
}

func TestUserCommandsRequireAdmin(t *testing.T) {
	srv := startBackend(t)
	admin := registered(t, srv, "alice")
	member := registered(t, srv, "bob")
	ctx := context.Background()
	out := capture(t, "")

	err := ListUsersCommand(ctx, member, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin")

	require.NoError(t, ListUsersCommand(ctx, admin, []string{"--role", string(models.RoleUser)}))
	assert.Contains(t, out.String(), "bob@example.com")
	assert.NotContains(t, out.String(), "alice@example.com")
}

func TestActivitiesOverdueFlag(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	ctx := context.Background()
	out := capture(t, "")

	require.NoError(t, AddActivityCommand(ctx, client, []string{"--type", "call", "--subject", "Late call", "--due", "2001-01-01"}))
	require.NoError(t, AddActivityCommand(ctx, client, []string{"--type", "task", "--subject", "Future task", "--due", "2999-01-01"}))

	out.Reset()
	require.NoError(t, ListActivitiesCommand(ctx, client, []string{"--overdue"}))
	assert.Contains(t, out.String(), "Late call")
	assert.Contains(t, out.String(), "(overdue)")
	assert.NotContains(t, out.String(), "Future task")

	err := ListActivitiesCommand(ctx, client, []string{"--pending", "--completed"})
	assert.Error(t, err)
}

func TestExportCommandWritesWorkbook(t *testing.T) {
	srv := startBackend(t)
	client := registered(t, srv, "alice")
	ctx := context.Background()
	out := capture(t, "")

	_, err := client.Contacts.Create(ctx, api.ContactInput{Name: "Jane"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, ExportCommand(ctx, client, []string{"--output", path, "--only", "contacts,deals"}))
	assert.Contains(t, out.String(), "Contacts: 1 row(s)")
	assert.Contains(t, out.String(), "Deals: 0 row(s)")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, ExportCommand(ctx, client, []string{"--only", "invoices"}))
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "company", flagName("companyId"))
	assert.Equal(t, "close-date", flagName("expectedCloseDate"))
	assert.Equal(t, "name", flagName("name"))
	assert.Equal(t, "some-field", flagName("someField"))
}
