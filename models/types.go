// ABOUTME: Canonical data models for CRM entities exchanged with the REST backend
// ABOUTME: Defines Contact, Company, Deal, DealStage, Activity, Note, Share and User DTOs
package models

import (
	"strings"
	"time"
)

// ContactStatus classifies a contact. Always one of the four fixed values.
type ContactStatus string

const (
	StatusHot     ContactStatus = "hot"
	StatusWarm    ContactStatus = "warm"
	StatusCold    ContactStatus = "cold"
	StatusAllGood ContactStatus = "allGood"
)

// DefaultContactStatus is applied client-side when a contact is created without a status.
const DefaultContactStatus = StatusAllGood

// ContactStatuses returns the statuses in display order.
func ContactStatuses() []ContactStatus {
	return []ContactStatus{StatusHot, StatusWarm, StatusCold, StatusAllGood}
}

// Valid reports whether s is one of the fixed statuses.
func (s ContactStatus) Valid() bool {
	switch s {
	case StatusHot, StatusWarm, StatusCold, StatusAllGood:
		return true
	}
	return false
}

// ParseContactStatus accepts the canonical spelling as well as snake_case and
// lower-case variants the backend has been seen to emit.
func ParseContactStatus(s string) (ContactStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", ""))) {
	case "hot":
		return StatusHot, true
	case "warm":
		return StatusWarm, true
	case "cold":
		return StatusCold, true
	case "allgood":
		return StatusAllGood, true
	}
	return "", false
}

// ActivityType is the kind of an activity.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityNote    ActivityType = "note"
	ActivityTask    ActivityType = "task"
)

func ActivityTypes() []ActivityType {
	return []ActivityType{ActivityCall, ActivityEmail, ActivityMeeting, ActivityNote, ActivityTask}
}

func (t ActivityType) Valid() bool {
	for _, v := range ActivityTypes() {
		if t == v {
			return true
		}
	}
	return false
}

// ResourceType names a shareable entity.
type ResourceType string

const (
	ResourceContact  ResourceType = "contact"
	ResourceActivity ResourceType = "activity"
	ResourceDeal     ResourceType = "deal"
)

func ResourceTypes() []ResourceType {
	return []ResourceType{ResourceContact, ResourceActivity, ResourceDeal}
}

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceContact, ResourceActivity, ResourceDeal:
		return true
	}
	return false
}

// Permission is the access level granted by a share.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// Role is a user's account role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// ShareDirection tells whether a share was granted by or to the current user.
type ShareDirection string

const (
	ShareAll    ShareDirection = "all"
	ShareByMe   ShareDirection = "by-me"
	ShareWithMe ShareDirection = "with-me"
)

// DefaultCurrency is used for deals created without a currency.
const DefaultCurrency = "USD"

type Contact struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Position  string        `json:"position,omitempty"`
	CompanyID string        `json:"companyId,omitempty"`
	Company   string        `json:"companyName,omitempty"`
	Tags      TagSet        `json:"tags"`
	Status    ContactStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	OwnerID   string        `json:"ownerId,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Industry     string    `json:"industry,omitempty"`
	Website      string    `json:"website,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ContactCount int       `json:"contactCount"`
	DealCount    int       `json:"dealCount"`
	OwnerID      string    `json:"ownerId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Deal struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Value             float64    `json:"value"`
	Currency          string     `json:"currency"`
	StageID           string     `json:"stageId"`
	StageName         string     `json:"stageName,omitempty"`
	ContactID         string     `json:"contactId,omitempty"`
	ContactName       string     `json:"contactName,omitempty"`
	CompanyID         string     `json:"companyId,omitempty"`
	CompanyName       string     `json:"companyName,omitempty"`
	Probability       int        `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expectedCloseDate,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	OwnerID           string     `json:"ownerId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// WeightedValue is the deal value scaled by its win probability.
func (d Deal) WeightedValue() float64 {
	return d.Value * float64(d.Probability) / 100
}

type DealStage struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"orderIndex"`
}

type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Subject     string       `json:"subject"`
	Description string       `json:"description,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Completed   bool         `json:"completed"`
	ContactID   string       `json:"contactId,omitempty"`
	CompanyID   string       `json:"companyId,omitempty"`
	DealID      string       `json:"dealId,omitempty"`
	OwnerID     string       `json:"ownerId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// IsOverdue reports whether the activity is pending and its due date lies before now.
func (a Activity) IsOverdue(now time.Time) bool {
	return !a.Completed && a.DueDate != nil && a.DueDate.Before(now)
}

// Note is a free-text note attached to exactly one contact or one activity.
type Note struct {
	ID         string    `json:"id"`
	ContactID  string    `json:"contactId,omitempty"`
	ActivityID string    `json:"activityId,omitempty"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Share struct {
	ID               string       `json:"id"`
	ResourceType     ResourceType `json:"resourceType"`
	ResourceID       string       `json:"resourceId"`
	ResourceName     string       `json:"resourceName,omitempty"`
	OwnerID          string       `json:"ownerId,omitempty"`
	OwnerName        string       `json:"ownerName,omitempty"`
	SharedWithUserID string       `json:"sharedWithUserId"`
	SharedWithName   string       `json:"sharedWithName,omitempty"`
	SharedWithEmail  string       `json:"sharedWithEmail,omitempty"`
	Permission       Permission   `json:"permission"`
	Message          string       `json:"message,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`

	// Direction is assigned client-side when shared-by-me and shared-with-me
	// result sets are merged.
	Direction ShareDirection `json:"-"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user may reach /admin endpoints.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FindStage matches ref against stage IDs first and then names, ignoring case.
func FindStage(stages []DealStage, ref string) (DealStage, bool) {
	ref = strings.TrimSpace(ref)
	for _, s := range stages {
		if s.ID == ref {
			return s, true
		}
	}
	for _, s := range stages {
		if strings.EqualFold(s.Name, ref) {
			return s, true
		}
	}
	return DealStage{}, false
}
