// ABOUTME: Contact service: list, get, create, update, delete and status/tag helpers
// ABOUTME: Validates input with the contact form schema before any request is sent
package api

import (
	"context"
	"sort"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type ContactService struct {
	c *Client
}

// ContactInput is the body for creating a contact. An empty Status becomes allGood.
type ContactInput struct {
	Name      string               `json:"name"`
	Email     string               `json:"email,omitempty"`
	Phone     string               `json:"phone,omitempty"`
	Position  string               `json:"position,omitempty"`
	CompanyID string               `json:"companyId,omitempty"`
	Status    models.ContactStatus `json:"status"`
	Tags      models.TagSet        `json:"tags"`
	Notes     string               `json:"notes,omitempty"`
}

func (in ContactInput) formValues() map[string]string {
	return map[string]string{
		"name":      in.Name,
		"email":     in.Email,
		"phone":     in.Phone,
		"position":  in.Position,
		"companyId": in.CompanyID,
		"status":    string(in.Status),
		"tags":      in.Tags.String(),
		"notes":     in.Notes,
	}
}

// ContactUpdate carries only the fields to change.
type ContactUpdate struct {
	Name      *string               `json:"name,omitempty"`
	Email     *string               `json:"email,omitempty"`
	Phone     *string               `json:"phone,omitempty"`
	Position  *string               `json:"position,omitempty"`
	CompanyID *string               `json:"companyId,omitempty"`
	Status    *models.ContactStatus `json:"status,omitempty"`
	Tags      *models.TagSet        `json:"tags,omitempty"`
	Notes     *string               `json:"notes,omitempty"`
}

func (u ContactUpdate) formValues() map[string]string {
	v := map[string]string{}
	putIf(v, "name", u.Name)
	putIf(v, "email", u.Email)
	putIf(v, "phone", u.Phone)
	putIf(v, "position", u.Position)
	putIf(v, "companyId", u.CompanyID)
	putIf(v, "notes", u.Notes)
	if u.Status != nil {
		v["status"] = string(*u.Status)
	}
	if u.Tags != nil {
		v["tags"] = u.Tags.String()
	}
	return v
}

func putIf(values map[string]string, key string, s *string) {
	if s != nil {
		values[key] = *s
	}
}

func (s *ContactService) List(ctx context.Context, f ContactFilter) (models.Page[models.Contact], error) {
	return decodeList[models.Contact](s.c.get(ctx, "/contacts", f.Query()), "contacts")
}

func (s *ContactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	return decodeOne[models.Contact](s.c.get(ctx, path("/contacts", id), nil), "contact")
}

func (s *ContactService) Create(ctx context.Context, in ContactInput) (*models.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Status == "" {
		in.Status = models.DefaultContactStatus
	}
	in.Tags = models.NormalizeTags(in.Tags)
	if errs := validate.ContactForm.Validate(in.formValues()); errs != nil {
		return nil, errs
	}
	return decodeOne[models.Contact](s.c.post(ctx, "/contacts", in), "contact")
}

func (s *ContactService) Update(ctx context.Context, id string, u ContactUpdate) (*models.Contact, error) {
	if u.Tags != nil {
		tags := models.NormalizeTags(*u.Tags)
		u.Tags = &tags
	}
	if errs := validate.ContactForm.ValidatePartial(u.formValues()); errs != nil {
		return nil, errs
	}
	return decodeOne[models.Contact](s.c.put(ctx, path("/contacts", id), u), "contact")
}

// UpdateStatus changes only the contact's status.
func (s *ContactService) UpdateStatus(ctx context.Context, id string, status models.ContactStatus) (*models.Contact, error) {
	if !status.Valid() {
		return nil, validate.Errors{"status": "Status must be one of: hot, warm, cold, allGood"}
	}
	body := map[string]models.ContactStatus{"status": status}
	return decodeOne[models.Contact](s.c.patch(ctx, path("/contacts", id, "status"), body), "contact")
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, path("/contacts", id)).Err()
}

// Tags returns every tag in use, sorted case-insensitively.
func (s *ContactService) Tags(ctx context.Context) ([]string, error) {
	tags, err := decodeSlice[string](s.c.get(ctx, "/contacts/tags", nil), "tags")
	if err != nil {
		return nil, err
	}
	out := []string(models.NormalizeTags(tags))
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out, nil
}

// SuggestTags fetches known tags and filters them for an autocomplete prompt.
func (s *ContactService) SuggestTags(ctx context.Context, current models.TagSet, prefix string, max int) ([]string, error) {
	known, err := s.Tags(ctx)
	if err != nil {
		return nil, err
	}
	return models.SuggestTags(known, current, prefix, max), nil
}
