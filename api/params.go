// ABOUTME: Typed list parameters and filters for every list endpoint
// ABOUTME: Encodes filters into query strings and decodes paginated envelopes
package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

// ListParams are shared by every list call. Zero values are omitted.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	return q
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

type ContactFilter struct {
	ListParams
	Status    models.ContactStatus
	Tags      []string
	CompanyID string
}

// WithPage returns a copy of f pointing at page n. All filters are kept.
func (f ContactFilter) WithPage(n int) ContactFilter {
	f.Page = n
	f.Tags = append([]string(nil), f.Tags...)
	return f
}

func (f ContactFilter) Query() url.Values {
	q := f.values()
	setIf(q, "status", string(f.Status))
	if tags := models.NormalizeTags(f.Tags); len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}
	setIf(q, "companyId", f.CompanyID)
	return q
}

type CompanyFilter struct {
	ListParams
	Industry string
}

func (f CompanyFilter) WithPage(n int) CompanyFilter {
	f.Page = n
	return f
}

func (f CompanyFilter) Query() url.Values {
	q := f.values()
	setIf(q, "industry", f.Industry)
	return q
}

type DealFilter struct {
	ListParams
	StageID   string
	ContactID string
	CompanyID string
}

func (f DealFilter) WithPage(n int) DealFilter {
	f.Page = n
	return f
}

func (f DealFilter) Query() url.Values {
	q := f.values()
	setIf(q, "stageId", f.StageID)
	setIf(q, "contactId", f.ContactID)
	setIf(q, "companyId", f.CompanyID)
	return q
}

// ActivityFilter sends Type and Completed to the backend. Overdue is applied
// after the page arrives and never reaches the query string.
type ActivityFilter struct {
	ListParams
	Type      models.ActivityType
	Completed *bool
	ContactID string
	CompanyID string
	DealID    string
	Overdue   bool
}

func (f ActivityFilter) WithPage(n int) ActivityFilter {
	f.Page = n
	return f
}

func (f ActivityFilter) Query() url.Values {
	q := f.values()
	setIf(q, "type", string(f.Type))
	if f.Completed != nil {
		q.Set("completed", strconv.FormatBool(*f.Completed))
	}
	setIf(q, "contactId", f.ContactID)
	setIf(q, "companyId", f.CompanyID)
	setIf(q, "dealId", f.DealID)
	return q
}

type UserFilter struct {
	ListParams
	Role models.Role
}

func (f UserFilter) WithPage(n int) UserFilter {
	f.Page = n
	return f
}

func (f UserFilter) Query() url.Values {
	q := f.values()
	setIf(q, "role", string(f.Role))
	return q
}

// ShareFilter narrows the merged share list.
type ShareFilter struct {
	Direction    models.ShareDirection
	ResourceType models.ResourceType
}

// Bool is a helper for optional boolean filters.
func Bool(b bool) *bool {
	return &b
}

// String is a helper for optional string fields in update inputs.
func String(s string) *string {
	return &s
}

// decodeList reads a paginated envelope whose items sit under key.
func decodeList[T any](resp Response, key string) (models.Page[T], error) {
	var page models.Page[T]
	if err := resp.Err(); err != nil {
		return page, err
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &env); err != nil {
		return page, fmt.Errorf("failed to decode %s: %w", key, err)
	}

	raw, ok := env[key]
	if !ok {
		for _, alt := range []string{"items", "data"} {
			if raw, ok = env[alt]; ok {
				break
			}
		}
	}
	if ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return page, fmt.Errorf("failed to decode %s: %w", key, err)
		}
	}
	if page.Items == nil {
		page.Items = []T{}
	}

	if rawPage, ok := env["pagination"]; ok && string(rawPage) != "null" {
		if err := json.Unmarshal(rawPage, &page.Pagination); err != nil {
			return page, fmt.Errorf("failed to decode pagination: %w", err)
		}
	} else {
		page.Pagination = models.NewPagination(1, len(page.Items), len(page.Items))
	}
	return page, nil
}

// decodeOne reads a single entity under key, falling back to the bare body.
func decodeOne[T any](resp Response, key string) (*T, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	raw, ok := env[key]
	if !ok {
		raw = resp.Data
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &v, nil
}

// decodeSlice reads a plain array under key.
func decodeSlice[T any](resp Response, key string) ([]T, error) {
	if err := resp.Err(); err != nil {
		return nil, err
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &env); err != nil {
		var direct []T
		if err2 := json.Unmarshal(resp.Data, &direct); err2 == nil {
			return direct, nil
		}
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	out := []T{}
	if raw, ok := env[key]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
	}
	return out, nil
}
