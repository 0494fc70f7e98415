// ABOUTME: Company service over /companies
// ABOUTME: Deleting a company that still has contacts surfaces the backend's conflict error
package api

import (
	"context"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type CompanyService struct {
	c *Client
}

type CompanyInput struct {
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
	Website  string `json:"website,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (in CompanyInput) formValues() map[string]string {
	return map[string]string{
		"name":     in.Name,
		"industry": in.Industry,
		"website":  in.Website,
		"phone":    in.Phone,
		"address":  in.Address,
		"notes":    in.Notes,
	}
}

type CompanyUpdate struct {
	Name     *string `json:"name,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Website  *string `json:"website,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func (u CompanyUpdate) formValues() map[string]string {
	v := map[string]string{}
	putIf(v, "name", u.Name)
	putIf(v, "industry", u.Industry)
	putIf(v, "website", u.Website)
	putIf(v, "phone", u.Phone)
	putIf(v, "address", u.Address)
	putIf(v, "notes", u.Notes)
	return v
}

func (s *CompanyService) List(ctx context.Context, f CompanyFilter) (models.Page[models.Company], error) {
	return decodeList[models.Company](s.c.get(ctx, "/companies", f.Query()), "companies")
}

func (s *CompanyService) Get(ctx context.Context, id string) (*models.Company, error) {
	return decodeOne[models.Company](s.c.get(ctx, path("/companies", id), nil), "company")
}

func (s *CompanyService) Create(ctx context.Context, in CompanyInput) (*models.Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	if errs := validate.CompanyForm.Validate(in.formValues()); errs != nil {
		return nil, errs
	}
	return decodeOne[models.Company](s.c.post(ctx, "/companies", in), "company")
}

func (s *CompanyService) Update(ctx context.Context, id string, u CompanyUpdate) (*models.Company, error) {
	if errs := validate.CompanyForm.ValidatePartial(u.formValues()); errs != nil {
		return nil, errs
	}
	return decodeOne[models.Company](s.c.put(ctx, path("/companies", id), u), "company")
}

// Delete removes a company. The backend refuses while contacts reference it
// and that error is returned unchanged.
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, path("/companies", id)).Err()
}
