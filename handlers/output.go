// ABOUTME: Flat output shapes returned by MCP tools
// ABOUTME: Converts canonical models into snake_case records with string timestamps
package handlers

import (
	"time"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

type ContactOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Position    string   `json:"position,omitempty"`
	CompanyID   string   `json:"company_id,omitempty"`
	CompanyName string   `json:"company_name,omitempty"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	Notes       string   `json:"notes,omitempty"`
	UpdatedAt   string   `json:"updated_at"`
}

type CompanyOutput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Industry     string `json:"industry,omitempty"`
	Website      string `json:"website,omitempty"`
	ContactCount int    `json:"contact_count"`
	DealCount    int    `json:"deal_count"`
	Notes        string `json:"notes,omitempty"`
}

type DealOutput struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Value             float64 `json:"value"`
	Currency          string  `json:"currency"`
	StageID           string  `json:"stage_id"`
	StageName         string  `json:"stage_name,omitempty"`
	Probability       int     `json:"probability"`
	ContactID         string  `json:"contact_id,omitempty"`
	CompanyID         string  `json:"company_id,omitempty"`
	CompanyName       string  `json:"company_name,omitempty"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
}

type ActivityOutput struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Subject   string `json:"subject"`
	DueDate   string `json:"due_date,omitempty"`
	Completed bool   `json:"completed"`
	Overdue   bool   `json:"overdue"`
	ContactID string `json:"contact_id,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	DealID    string `json:"deal_id,omitempty"`
}

type ShareOutput struct {
	ID             string `json:"id"`
	Direction      string `json:"direction"`
	ResourceType   string `json:"resource_type"`
	ResourceID     string `json:"resource_id"`
	ResourceName   string `json:"resource_name,omitempty"`
	OwnerName      string `json:"owner_name,omitempty"`
	SharedWithName string `json:"shared_with_name,omitempty"`
	Permission     string `json:"permission"`
	CreatedAt      string `json:"created_at"`
}

type PageOutput struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Total      int    `json:"total"`
	Label      string `json:"label"`
}

func pageToOutput(p models.Pagination) PageOutput {
	return PageOutput{Page: p.Page, TotalPages: p.TotalPages, Total: p.Total, Label: p.Label()}
}

func contactToOutput(c models.Contact) ContactOutput {
	tags := []string(c.Tags)
	if tags == nil {
		tags = []string{}
	}
	return ContactOutput{
		ID:          c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Position:    c.Position,
		CompanyID:   c.CompanyID,
		CompanyName: c.Company,
		Status:      string(c.Status),
		Tags:        tags,
		Notes:       c.Notes,
		UpdatedAt:   formatTime(&c.UpdatedAt),
	}
}

func companyToOutput(c models.Company) CompanyOutput {
	return CompanyOutput{
		ID:           c.ID,
		Name:         c.Name,
		Industry:     c.Industry,
		Website:      c.Website,
		ContactCount: c.ContactCount,
		DealCount:    c.DealCount,
		Notes:        c.Notes,
	}
}

func dealToOutput(d models.Deal) DealOutput {
	out := DealOutput{
		ID:          d.ID,
		Title:       d.Title,
		Value:       d.Value,
		Currency:    d.Currency,
		StageID:     d.StageID,
		StageName:   d.StageName,
		Probability: d.Probability,
		ContactID:   d.ContactID,
		CompanyID:   d.CompanyID,
		CompanyName: d.CompanyName,
	}
	if d.ExpectedCloseDate != nil {
		out.ExpectedCloseDate = d.ExpectedCloseDate.Format("2006-01-02")
	}
	return out
}

func activityToOutput(a models.Activity, now time.Time) ActivityOutput {
	return ActivityOutput{
		ID:        a.ID,
		Type:      string(a.Type),
		Subject:   a.Subject,
		DueDate:   formatTime(a.DueDate),
		Completed: a.Completed,
		Overdue:   a.IsOverdue(now),
		ContactID: a.ContactID,
		CompanyID: a.CompanyID,
		DealID:    a.DealID,
	}
}

func shareToOutput(s models.Share) ShareOutput {
	return ShareOutput{
		ID:             s.ID,
		Direction:      string(s.Direction),
		ResourceType:   string(s.ResourceType),
		ResourceID:     s.ResourceID,
		ResourceName:   s.ResourceName,
		OwnerName:      s.OwnerName,
		SharedWithName: s.SharedWithName,
		Permission:     string(s.Permission),
		CreatedAt:      formatTime(&s.CreatedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
