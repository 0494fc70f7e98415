// ABOUTME: Helper that walks every page of a list endpoint
// ABOUTME: Used by exports, graphs and dashboard stats that need the full result set
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

// MaxCollectPages bounds Collect so a misbehaving backend cannot loop forever.
const MaxCollectPages = 500

// ErrTooManyPages is returned when Collect reaches MaxCollectPages and the
// backend still reports more.
var ErrTooManyPages = errors.New("result set too large")

// CollectLimit is the page size Collect asks for.
const CollectLimit = 100

// Collect calls fetch for page 1, 2, ... until the backend reports no next page.
// It fails with ErrTooManyPages rather than return a truncated result.
func Collect[T any](ctx context.Context, fetch func(ctx context.Context, page int) (models.Page[T], error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if !p.Pagination.HasNext {
			break
		}
		if page == MaxCollectPages {
			return nil, fmt.Errorf("%w: stopped after %d pages", ErrTooManyPages, MaxCollectPages)
		}
	}
	if all == nil {
		all = []T{}
	}
	return all, nil
}

// All pages through every contact matching f.
func (s *ContactService) All(ctx context.Context, f ContactFilter) ([]models.Contact, error) {
	f.Limit = CollectLimit
	return Collect(ctx, func(ctx context.Context, page int) (models.Page[models.Contact], error) {
		return s.List(ctx, f.WithPage(page))
	})
}

// All pages through every company matching f.
func (s *CompanyService) All(ctx context.Context, f CompanyFilter) ([]models.Company, error) {
	f.Limit = CollectLimit
	return Collect(ctx, func(ctx context.Context, page int) (models.Page[models.Company], error) {
		return s.List(ctx, f.WithPage(page))
	})
}

// All pages through every deal matching f.
func (s *DealService) All(ctx context.Context, f DealFilter) ([]models.Deal, error) {
	f.Limit = CollectLimit
	return Collect(ctx, func(ctx context.Context, page int) (models.Page[models.Deal], error) {
		return s.List(ctx, f.WithPage(page))
	})
}

// All pages through every activity matching f. The overdue filter, when set,
// applies to each fetched page.
func (s *ActivityService) All(ctx context.Context, f ActivityFilter) ([]models.Activity, error) {
	f.Limit = CollectLimit
	return Collect(ctx, func(ctx context.Context, page int) (models.Page[models.Activity], error) {
		return s.List(ctx, f.WithPage(page))
	})
}
