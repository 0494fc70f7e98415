// ABOUTME: Share service: merged shared-by-me and shared-with-me listing, create and revoke
// ABOUTME: Both share lists are fetched concurrently and fail together
package api

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

// AlreadySharedMessage replaces the backend message for any rejected share.
const AlreadySharedMessage = "Failed to share. The resource may already be shared with this user."

type ShareService struct {
	c *Client
}

type ShareInput struct {
	ResourceType     models.ResourceType `json:"resourceType"`
	ResourceID       string              `json:"resourceId"`
	SharedWithUserID string              `json:"sharedWithUserId"`
	Permission       models.Permission   `json:"permission"`
	Message          string              `json:"message,omitempty"`
}

func (in ShareInput) formValues() map[string]string {
	return map[string]string{
		"resourceType":     string(in.ResourceType),
		"resourceId":       in.ResourceID,
		"sharedWithUserId": in.SharedWithUserID,
		"permission":       string(in.Permission),
		"message":          in.Message,
	}
}

func (s *ShareService) byDirection(ctx context.Context, endpoint string, dir models.ShareDirection) ([]models.Share, error) {
	shares, err := decodeSlice[models.Share](s.c.get(ctx, endpoint, nil), "shares")
	if err != nil {
		return nil, err
	}
	for i := range shares {
		shares[i].Direction = dir
	}
	return shares, nil
}

func (s *ShareService) SharedByMe(ctx context.Context) ([]models.Share, error) {
	return s.byDirection(ctx, "/shares/shared-by-me", models.ShareByMe)
}

func (s *ShareService) SharedWithMe(ctx context.Context) ([]models.Share, error) {
	return s.byDirection(ctx, "/shares/shared-with-me", models.ShareWithMe)
}

// List fetches both directions concurrently, merges them newest first and
// applies f. If either fetch fails the whole call fails.
func (s *ShareService) List(ctx context.Context, f ShareFilter) ([]models.Share, error) {
	var byMe, withMe []models.Share

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byMe, err = s.SharedByMe(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		withMe, err = s.SharedWithMe(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]models.Share, 0, len(byMe)+len(withMe))
	merged = append(merged, byMe...)
	merged = append(merged, withMe...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].CreatedAt.After(merged[j].CreatedAt) })

	return FilterShares(merged, f), nil
}

// FilterShares keeps shares matching the direction and resource type in f.
// Empty filter values match everything.
func FilterShares(shares []models.Share, f ShareFilter) []models.Share {
	out := make([]models.Share, 0, len(shares))
	for _, sh := range shares {
		if f.Direction != "" && f.Direction != models.ShareAll && sh.Direction != f.Direction {
			continue
		}
		if f.ResourceType != "" && sh.ResourceType != f.ResourceType {
			continue
		}
		out = append(out, sh)
	}
	return out
}

// Create shares a resource. Any backend rejection, duplicates included, is
// reported with AlreadySharedMessage and the original status.
func (s *ShareService) Create(ctx context.Context, in ShareInput) (*models.Share, error) {
	if errs := validate.ShareForm.Validate(in.formValues()); errs != nil {
		return nil, errs
	}
	share, err := decodeOne[models.Share](s.c.post(ctx, "/shares", in), "share")
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status >= 400 {
			return nil, &Error{Status: apiErr.Status, Message: AlreadySharedMessage}
		}
		return nil, err
	}
	share.Direction = models.ShareByMe
	return share, nil
}

// Delete revokes a share. It cannot be undone.
func (s *ShareService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, path("/shares", id)).Err()
}

// ShareableUsers lists users the current user may share with.
func (s *ShareService) ShareableUsers(ctx context.Context) ([]models.User, error) {
	return decodeSlice[models.User](s.c.get(ctx, "/shares/users", nil), "users")
}
