// ABOUTME: Deal service over /deals plus the ordered pipeline stages
// ABOUTME: Currency defaults to USD; probability and value are range checked locally
package api

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type DealService struct {
	c *Client
}

// DealInput creates a deal. ExpectedCloseDate is "YYYY-MM-DD" or empty.
type DealInput struct {
	Title             string  `json:"title"`
	Value             float64 `json:"value"`
	Currency          string  `json:"currency"`
	StageID           string  `json:"stageId"`
	ContactID         string  `json:"contactId,omitempty"`
	CompanyID         string  `json:"companyId,omitempty"`
	Probability       int     `json:"probability"`
	ExpectedCloseDate string  `json:"expectedCloseDate,omitempty"`
	Notes             string  `json:"notes,omitempty"`
}

func (in DealInput) formValues() map[string]string {
	return map[string]string{
		"title":             in.Title,
		"value":             strconv.FormatFloat(in.Value, 'f', -1, 64),
		"currency":          in.Currency,
		"stageId":           in.StageID,
		"contactId":         in.ContactID,
		"companyId":         in.CompanyID,
		"probability":       strconv.Itoa(in.Probability),
		"expectedCloseDate": in.ExpectedCloseDate,
		"notes":             in.Notes,
	}
}

type DealUpdate struct {
	Title             *string  `json:"title,omitempty"`
	Value             *float64 `json:"value,omitempty"`
	Currency          *string  `json:"currency,omitempty"`
	StageID           *string  `json:"stageId,omitempty"`
	ContactID         *string  `json:"contactId,omitempty"`
	CompanyID         *string  `json:"companyId,omitempty"`
	Probability       *int     `json:"probability,omitempty"`
	ExpectedCloseDate *string  `json:"expectedCloseDate,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
}

func (u DealUpdate) formValues() map[string]string {
	v := map[string]string{}
	putIf(v, "title", u.Title)
	putIf(v, "currency", u.Currency)
	putIf(v, "stageId", u.StageID)
	putIf(v, "contactId", u.ContactID)
	putIf(v, "companyId", u.CompanyID)
	putIf(v, "expectedCloseDate", u.ExpectedCloseDate)
	putIf(v, "notes", u.Notes)
	if u.Value != nil {
		v["value"] = strconv.FormatFloat(*u.Value, 'f', -1, 64)
	}
	if u.Probability != nil {
		v["probability"] = strconv.Itoa(*u.Probability)
	}
	return v
}

func (s *DealService) List(ctx context.Context, f DealFilter) (models.Page[models.Deal], error) {
	return decodeList[models.Deal](s.c.get(ctx, "/deals", f.Query()), "deals")
}

func (s *DealService) Get(ctx context.Context, id string) (*models.Deal, error) {
	return decodeOne[models.Deal](s.c.get(ctx, path("/deals", id), nil), "deal")
}

func (s *DealService) Create(ctx context.Context, in DealInput) (*models.Deal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Currency == "" {
		in.Currency = models.DefaultCurrency
	}
	if errs := validate.DealForm.Validate(in.formValues()); errs != nil {
		return nil, errs
	}
	return decodeOne[models.Deal](s.c.post(ctx, "/deals", in), "deal")
}

func (s *DealService) Update(ctx context.Context, id string, u DealUpdate) (*models.Deal, error) {
	if errs := validate.DealForm.ValidatePartial(u.formValues()); errs != nil {
		return nil, errs
	}
	return decodeOne[models.Deal](s.c.put(ctx, path("/deals", id), u), "deal")
}

func (s *DealService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, path("/deals", id)).Err()
}

// Stages returns the pipeline stages ordered by OrderIndex.
func (s *DealService) Stages(ctx context.Context) ([]models.DealStage, error) {
	stages, err := decodeSlice[models.DealStage](s.c.get(ctx, "/deals/stages", nil), "stages")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].OrderIndex < stages[j].OrderIndex })
	return stages, nil
}
