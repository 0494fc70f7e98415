// ABOUTME: Note service shared by contact notes and activity notes
// ABOUTME: Each instance is bound to one endpoint and the parent id key it filters by
package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

// NoteService manages notes attached to one parent kind.
type NoteService struct {
	c         *Client
	endpoint  string
	parentKey string
}

// List returns every note on the parent, newest first as the backend sends them.
func (s *NoteService) List(ctx context.Context, parentID string) ([]models.Note, error) {
	q := url.Values{}
	q.Set(s.parentKey, parentID)
	return decodeSlice[models.Note](s.c.get(ctx, s.endpoint, q), "notes")
}

func (s *NoteService) Create(ctx context.Context, parentID, content string) (*models.Note, error) {
	content = strings.TrimSpace(content)
	if errs := validate.NoteForm.Validate(map[string]string{"content": content}); errs != nil {
		return nil, errs
	}
	body := map[string]string{s.parentKey: parentID, "content": content}
	return decodeOne[models.Note](s.c.post(ctx, s.endpoint, body), "note")
}

func (s *NoteService) Update(ctx context.Context, id, content string) (*models.Note, error) {
	content = strings.TrimSpace(content)
	if errs := validate.NoteForm.Validate(map[string]string{"content": content}); errs != nil {
		return nil, errs
	}
	body := map[string]string{"content": content}
	return decodeOne[models.Note](s.c.put(ctx, path(s.endpoint, id), body), "note")
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, path(s.endpoint, id)).Err()
}
