// ABOUTME: Tests for contacts, companies, deals, activities, notes and shares
// ABOUTME: Exercises filters, visibility through shares and delete constraints
package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

func TestContactDefaultsAndTags(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	c := &models.Contact{Name: "Jane", OwnerID: u.ID, Tags: models.TagSet{"vip", " VIP ", "lead"}}
	require.NoError(t, CreateContact(db, c))

	got, err := GetContact(db, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusAllGood, got.Status)
	assert.Equal(t, models.TagSet{"vip", "lead"}, got.Tags)

	missing, err := GetContact(db, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListContactsTagsAreANDed(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	for _, c := range []*models.Contact{
		{Name: "Both", Tags: models.TagSet{"vip", "enterprise"}},
		{Name: "VipOnly", Tags: models.TagSet{"vip"}},
		{Name: "None"},
	} {
		c.OwnerID = u.ID
		require.NoError(t, CreateContact(db, c))
	}

	contacts, total, err := ListContacts(db, u.ID, ContactQuery{Tags: []string{"vip", "Enterprise"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Both", contacts[0].Name)

	tags, err := ContactTags(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"enterprise", "vip"}, tags)
}

func TestListContactsPagingAndFilters(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	for i := 0; i < 45; i++ {
		status := models.StatusHot
		if i%3 == 0 {
			status = models.StatusCold
		}
		require.NoError(t, CreateContact(db, &models.Contact{Name: "Jane", OwnerID: u.ID, Status: status}))
	}
	require.NoError(t, CreateContact(db, &models.Contact{Name: "Bob", OwnerID: u.ID, Status: models.StatusHot}))

	contacts, total, err := ListContacts(db, u.ID, ContactQuery{ListQuery: ListQuery{Page: 2, Limit: 20, Search: "jan"}})
	require.NoError(t, err)
	assert.Equal(t, 45, total)
	assert.Len(t, contacts, 20)

	_, total, err = ListContacts(db, u.ID, ContactQuery{ListQuery: ListQuery{Search: "jane"}, Status: "hot"})
	require.NoError(t, err)
	assert.Equal(t, 30, total)
}

func TestContactVisibilityThroughShares(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")

	c := &models.Contact{Name: "Shared", OwnerID: owner.ID}
	require.NoError(t, CreateContact(db, c))
	require.NoError(t, CreateContact(db, &models.Contact{Name: "Private", OwnerID: owner.ID}))

	_, total, err := ListContacts(db, other.ID, ContactQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	require.NoError(t, CreateShare(db, &models.Share{
		ResourceType: models.ResourceContact, ResourceID: c.ID, OwnerID: owner.ID,
		SharedWithUserID: other.ID, Permission: models.PermissionView,
	}))

	contacts, total, err := ListContacts(db, other.ID, ContactQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Shared", contacts[0].Name)
}

func TestDuplicateShareRejected(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	c := &models.Contact{Name: "Jane", OwnerID: owner.ID}
	require.NoError(t, CreateContact(db, c))

	share := func(perm models.Permission) error {
		return CreateShare(db, &models.Share{
			ResourceType: models.ResourceContact, ResourceID: c.ID, OwnerID: owner.ID,
			SharedWithUserID: other.ID, Permission: perm,
		})
	}
	require.NoError(t, share(models.PermissionView))
	assert.ErrorIs(t, share(models.PermissionEdit), ErrDuplicateShare)

	byMe, err := SharesByOwner(db, owner.ID)
	require.NoError(t, err)
	require.Len(t, byMe, 1)
	assert.Equal(t, "Jane", byMe[0].ResourceName)
	assert.Equal(t, "other", byMe[0].SharedWithName)

	withMe, err := SharesWithUser(db, other.ID)
	require.NoError(t, err)
	assert.Len(t, withMe, 1)
}

func TestDeleteShareOwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	c := &models.Contact{Name: "Jane", OwnerID: owner.ID}
	require.NoError(t, CreateContact(db, c))
	s := &models.Share{ResourceType: models.ResourceContact, ResourceID: c.ID, OwnerID: owner.ID, SharedWithUserID: other.ID, Permission: models.PermissionView}
	require.NoError(t, CreateShare(db, s))

	assert.ErrorIs(t, DeleteShare(db, s.ID, other.ID), ErrForbidden)
	require.NoError(t, DeleteShare(db, s.ID, owner.ID))
	assert.ErrorIs(t, DeleteShare(db, s.ID, owner.ID), ErrNotFound)
}

func TestDeleteContactRemovesShares(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	c := &models.Contact{Name: "Jane", OwnerID: owner.ID}
	require.NoError(t, CreateContact(db, c))
	require.NoError(t, CreateShare(db, &models.Share{ResourceType: models.ResourceContact, ResourceID: c.ID, OwnerID: owner.ID, SharedWithUserID: other.ID, Permission: models.PermissionView}))

	require.NoError(t, DeleteContact(db, c.ID))

	shares, err := SharesWithUser(db, other.ID)
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestDeleteCompanyWithContacts(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	co := &models.Company{Name: "Acme", OwnerID: u.ID}
	require.NoError(t, CreateCompany(db, co))
	c := &models.Contact{Name: "Jane", OwnerID: u.ID, CompanyID: co.ID}
	require.NoError(t, CreateContact(db, c))

	got, err := GetCompany(db, co.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ContactCount)

	contact, err := GetContact(db, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", contact.Company)

	assert.ErrorIs(t, DeleteCompany(db, co.ID), ErrCompanyHasContacts)

	require.NoError(t, DeleteContact(db, c.ID))
	require.NoError(t, DeleteCompany(db, co.ID))
	assert.ErrorIs(t, DeleteCompany(db, co.ID), ErrNotFound)
}

func TestListCompaniesIndustry(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")
	require.NoError(t, CreateCompany(db, &models.Company{Name: "Acme", Industry: "Software", OwnerID: u.ID}))
	require.NoError(t, CreateCompany(db, &models.Company{Name: "Globex", Industry: "Energy", OwnerID: u.ID}))

	companies, total, err := ListCompanies(db, u.ID, CompanyQuery{Industry: "software"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Acme", companies[0].Name)
}

func TestDealLifecycle(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")
	co := &models.Company{Name: "Acme", OwnerID: u.ID}
	require.NoError(t, CreateCompany(db, co))

	closeDate := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	d := &models.Deal{Title: "License", Value: 5000, StageID: "proposal", CompanyID: co.ID, Probability: 50, ExpectedCloseDate: &closeDate, OwnerID: u.ID}
	require.NoError(t, CreateDeal(db, d))
	assert.Equal(t, "USD", d.Currency)

	got, err := GetDeal(db, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Proposal", got.StageName)
	assert.Equal(t, "Acme", got.CompanyName)
	require.NotNil(t, got.ExpectedCloseDate)
	assert.True(t, closeDate.Equal(*got.ExpectedCloseDate))
	assert.InDelta(t, 2500, got.WeightedValue(), 0.001)

	deals, total, err := ListDeals(db, u.ID, DealQuery{StageID: "proposal"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, deals, 1)

	got.StageID = "closed-won"
	require.NoError(t, UpdateDeal(db, got))
	got, err = GetDeal(db, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Closed Won", got.StageName)

	bad := &models.Deal{Title: "Bad", StageID: "nope", OwnerID: u.ID}
	assert.ErrorIs(t, CreateDeal(db, bad), ErrNotFound)

	require.NoError(t, DeleteDeal(db, d.ID))
	got, err = GetDeal(db, d.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestActivitiesFilters(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")

	due := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, CreateActivity(db, &models.Activity{Type: models.ActivityCall, Subject: "Call Jane", DueDate: &due, OwnerID: u.ID}))
	require.NoError(t, CreateActivity(db, &models.Activity{Type: models.ActivityTask, Subject: "Send deck", Completed: true, OwnerID: u.ID}))
	require.NoError(t, CreateActivity(db, &models.Activity{Type: models.ActivityCall, Subject: "Call Bob", Completed: true, OwnerID: u.ID}))

	calls, total, err := ListActivities(db, u.ID, ActivityQuery{Type: "call"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Call Jane", calls[0].Subject)

	pending := false
	open, total, err := ListActivities(db, u.ID, ActivityQuery{Completed: &pending})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.NotNil(t, open[0].DueDate)
	assert.True(t, open[0].IsOverdue(time.Now()))

	open[0].Completed = true
	require.NoError(t, UpdateActivity(db, &open[0]))
	_, total, err = ListActivities(db, u.ID, ActivityQuery{Completed: &pending})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestNotes(t *testing.T) {
	db := setupTestDB(t)
	u := createTestUser(t, db, "ada")
	c := &models.Contact{Name: "Jane", OwnerID: u.ID}
	require.NoError(t, CreateContact(db, c))

	n, err := CreateNote(db, ContactNotes, c.ID, u.ID, "Met at conference")
	require.NoError(t, err)
	assert.Equal(t, c.ID, n.ContactID)
	assert.Equal(t, "ada", n.AuthorName)
	assert.Equal(t, c.ID, ContactNotes.ParentID(n))

	n, err = UpdateNote(db, ContactNotes, n.ID, "Met at GopherCon")
	require.NoError(t, err)
	assert.Equal(t, "Met at GopherCon", n.Content)

	notes, err := ListNotes(db, ContactNotes, c.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, DeleteContact(db, c.ID))
	notes, err = ListNotes(db, ContactNotes, c.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
