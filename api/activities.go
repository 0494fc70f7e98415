// ABOUTME: Activity service over /activities with completion toggling
// ABOUTME: The overdue filter is evaluated on the fetched page using the client clock
package api

import (
	"context"
	"strings"
	"time"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type ActivityService struct {
	c *Client
}

// ActivityInput creates an activity. DueDate accepts "YYYY-MM-DD",
// "YYYY-MM-DD HH:MM" or RFC 3339 and is sent as RFC 3339.
type ActivityInput struct {
	Type        models.ActivityType `json:"type"`
	Subject     string              `json:"subject"`
	Description string              `json:"description,omitempty"`
	DueDate     string              `json:"dueDate,omitempty"`
	Completed   bool                `json:"completed"`
	ContactID   string              `json:"contactId,omitempty"`
	CompanyID   string              `json:"companyId,omitempty"`
	DealID      string              `json:"dealId,omitempty"`
}

func (in ActivityInput) formValues() map[string]string {
	return map[string]string{
		"type":        string(in.Type),
		"subject":     in.Subject,
		"description": in.Description,
		"dueDate":     in.DueDate,
		"contactId":   in.ContactID,
		"companyId":   in.CompanyID,
		"dealId":      in.DealID,
	}
}

type ActivityUpdate struct {
	Type        *models.ActivityType `json:"type,omitempty"`
	Subject     *string              `json:"subject,omitempty"`
	Description *string              `json:"description,omitempty"`
	DueDate     *string              `json:"dueDate,omitempty"`
	Completed   *bool                `json:"completed,omitempty"`
	ContactID   *string              `json:"contactId,omitempty"`
	CompanyID   *string              `json:"companyId,omitempty"`
	DealID      *string              `json:"dealId,omitempty"`
}

func (u ActivityUpdate) formValues() map[string]string {
	v := map[string]string{}
	if u.Type != nil {
		v["type"] = string(*u.Type)
	}
	putIf(v, "subject", u.Subject)
	putIf(v, "description", u.Description)
	putIf(v, "dueDate", u.DueDate)
	putIf(v, "contactId", u.ContactID)
	putIf(v, "companyId", u.CompanyID)
	putIf(v, "dealId", u.DealID)
	return v
}

// normalizeDue rewrites a form date into RFC 3339. Empty stays empty.
func normalizeDue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, ok := validate.ParseDateTime(s); ok {
		return t.Format(time.RFC3339)
	}
	return s
}

// List fetches one page. When f.Overdue is set only overdue activities on
// that page are kept; the pagination envelope still describes the full page.
func (s *ActivityService) List(ctx context.Context, f ActivityFilter) (models.Page[models.Activity], error) {
	page, err := decodeList[models.Activity](s.c.get(ctx, "/activities", f.Query()), "activities")
	if err != nil || !f.Overdue {
		return page, err
	}
	page.Items = FilterOverdue(page.Items, s.c.now())
	return page, nil
}

// FilterOverdue keeps activities that are not completed and due before now.
func FilterOverdue(items []models.Activity, now time.Time) []models.Activity {
	out := make([]models.Activity, 0, len(items))
	for _, a := range items {
		if a.IsOverdue(now) {
			out = append(out, a)
		}
	}
	return out
}

func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	return decodeOne[models.Activity](s.c.get(ctx, path("/activities", id), nil), "activity")
}

func (s *ActivityService) Create(ctx context.Context, in ActivityInput) (*models.Activity, error) {
	in.Subject = strings.TrimSpace(in.Subject)
	if errs := validate.ActivityForm.Validate(in.formValues()); errs != nil {
		return nil, errs
	}
	in.DueDate = normalizeDue(in.DueDate)
	return decodeOne[models.Activity](s.c.post(ctx, "/activities", in), "activity")
}

func (s *ActivityService) Update(ctx context.Context, id string, u ActivityUpdate) (*models.Activity, error) {
	if errs := validate.ActivityForm.ValidatePartial(u.formValues()); errs != nil {
		return nil, errs
	}
	if u.DueDate != nil {
		due := normalizeDue(*u.DueDate)
		u.DueDate = &due
	}
	return decodeOne[models.Activity](s.c.put(ctx, path("/activities", id), u), "activity")
}

// SetCompleted marks an activity done or pending.
func (s *ActivityService) SetCompleted(ctx context.Context, id string, completed bool) (*models.Activity, error) {
	body := map[string]bool{"completed": completed}
	return decodeOne[models.Activity](s.c.put(ctx, path("/activities", id), body), "activity")
}

// ToggleComplete flips the completion flag of a.
func (s *ActivityService) ToggleComplete(ctx context.Context, a models.Activity) (*models.Activity, error) {
	return s.SetCompleted(ctx, a.ID, !a.Completed)
}

func (s *ActivityService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, path("/activities", id)).Err()
}
