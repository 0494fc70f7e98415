// ABOUTME: Tests for database setup, users, sessions and access rules
// ABOUTME: Each test runs against a fresh SQLite file in a temp directory
package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, CreateUser(db, u, "password123"))
	return u
}

func TestOpenDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "crm.db")
	db, err := OpenDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	version, err := SchemaVersion(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestOpenDatabaseTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "crm.db")
	db, err := OpenDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	stages, err := ListStages(db)
	require.NoError(t, err)
	assert.Len(t, stages, 6)
}

func TestStagesOrdered(t *testing.T) {
	db := setupTestDB(t)
	stages, err := ListStages(db)
	require.NoError(t, err)
	for i := 1; i < len(stages); i++ {
		assert.Less(t, stages[i-1].OrderIndex, stages[i].OrderIndex)
	}
	assert.Equal(t, "Lead", stages[0].Name)
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")
	assert.Equal(t, models.RoleUser, u.Role)

	got, err := Authenticate(db, "ADA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = Authenticate(db, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = Authenticate(db, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "ada")

	err := CreateUser(db, &models.User{Name: "Other", Email: "ada@example.com"}, "password123")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestChangePassword(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	assert.ErrorIs(t, ChangePassword(db, u.ID, "nope", "newpassword1"), ErrInvalidCredentials)
	require.NoError(t, ChangePassword(db, u.ID, "password123", "newpassword1"))

	_, err := Authenticate(db, u.Email, "newpassword1")
	assert.NoError(t, err)
}

func TestSessions(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	token, err := CreateSession(db, u.ID, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	got, err := SessionUser(db, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	expired, err := CreateSession(db, u.ID, -time.Minute)
	require.NoError(t, err)
	got, err = SessionUser(db, expired)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := PurgeExpiredSessions(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, DeleteSession(db, token))
	got, err = SessionUser(db, token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListUsersFilters(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "ada")
	createTestUser(t, db, "bob")
	admin := &models.User{Name: "root", Email: "root@example.com", Role: models.RoleAdmin}
	require.NoError(t, CreateUser(db, admin, "password123"))

	users, total, err := ListUsers(db, UserQuery{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "root", users[0].Name)

	users, total, err = ListUsers(db, UserQuery{ListQuery: ListQuery{Search: "bo"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "bob", users[0].Name)

	shareable, err := ShareableUsers(db, admin.ID)
	require.NoError(t, err)
	assert.Len(t, shareable, 2)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	role := models.RoleAdmin
	name := "Ada L."
	got, err := UpdateUser(db, u.ID, UserPatch{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.True(t, got.IsAdmin())

	_, err = UpdateUser(db, "missing", UserPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, DeleteUser(db, u.ID))
	assert.ErrorIs(t, DeleteUser(db, u.ID), ErrNotFound)
}

func TestResourceAccess(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner")
	viewer := createTestUser(t, db, "viewer")
	editor := createTestUser(t, db, "editor")
	stranger := createTestUser(t, db, "stranger")

	c := &models.Contact{Name: "Jane", OwnerID: owner.ID}
	require.NoError(t, CreateContact(db, c))

	require.NoError(t, CreateShare(db, &models.Share{ResourceType: models.ResourceContact, ResourceID: c.ID, OwnerID: owner.ID, SharedWithUserID: viewer.ID, Permission: models.PermissionView}))
	require.NoError(t, CreateShare(db, &models.Share{ResourceType: models.ResourceContact, ResourceID: c.ID, OwnerID: owner.ID, SharedWithUserID: editor.ID, Permission: models.PermissionEdit}))

	tests := []struct {
		user *models.User
		want Access
	}{
		{owner, AccessOwner},
		{editor, AccessEdit},
		{viewer, AccessView},
		{stranger, AccessNone},
	}
	for _, tt := range tests {
		t.Run(tt.user.Name, func(t *testing.T) {
			got, err := ResourceAccess(db, models.ResourceContact, c.ID, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResourceAccess(db, models.ResourceContact, "missing", owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
