// ABOUTME: Shared response and request helpers for API handlers
// ABOUTME: Maps storage errors to HTTP statuses and parses paging query parameters
package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func failValidation(c *gin.Context, errs validate.Errors) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": errs})
}

func (s *Server) internalError(c *gin.Context, err error) {
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	fail(c, http.StatusInternalServerError, "Internal server error")
}

// storeError answers with the status matching a db sentinel error.
func (s *Server) storeError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		fail(c, http.StatusNotFound, notFound)
	case errors.Is(err, db.ErrForbidden):
		fail(c, http.StatusForbidden, "You do not have permission to perform this action")
	case errors.Is(err, db.ErrDuplicateShare):
		fail(c, http.StatusConflict, "Resource already shared with this user")
	case errors.Is(err, db.ErrCompanyHasContacts):
		fail(c, http.StatusConflict, "Cannot delete company with associated contacts")
	case errors.Is(err, db.ErrEmailTaken):
		fail(c, http.StatusConflict, "Email already registered")
	default:
		s.internalError(c, err)
	}
}

// bindJSON decodes the body into v, answering 400 on malformed input.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func listQuery(c *gin.Context) db.ListQuery {
	q := db.ListQuery{
		Page:   atoiDefault(c.Query("page"), 1),
		Limit:  atoiDefault(c.Query("limit"), 0),
		Search: strings.TrimSpace(c.Query("search")),
	}
	q.Normalize()
	return q
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func pagination(q db.ListQuery, total int) models.Pagination {
	return models.NewPagination(q.Page, q.Limit, total)
}

// splitList parses "a,b" query values.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return models.ParseTags(s)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// present collects the non-nil string pointers into form values.
func present(fields map[string]*string) map[string]string {
	out := map[string]string{}
	for k, v := range fields {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

// access checks the caller's rights on a resource, answering 404 when it
// cannot be seen and 403 when the requested level is missing.
func (s *Server) access(c *gin.Context, rt models.ResourceType, id string, need db.Access) bool {
	got, err := db.ResourceAccess(s.db, rt, id, currentUser(c).ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.internalError(c, err)
		return false
	}
	label := strings.ToUpper(string(rt[:1])) + string(rt[1:])
	if !got.CanView() {
		fail(c, http.StatusNotFound, label+" not found")
		return false
	}
	if got < need {
		fail(c, http.StatusForbidden, "You do not have permission to perform this action")
		return false
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}
