// ABOUTME: Activity handlers with type, completion and parent filters
// ABOUTME: Due dates accept a plain date, a date with time or RFC 3339
package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type activityBody struct {
	Type        *string `json:"type"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Completed   *bool   `json:"completed"`
	ContactID   *string `json:"contactId"`
	CompanyID   *string `json:"companyId"`
	DealID      *string `json:"dealId"`
}

func (b activityBody) values() map[string]string {
	return present(map[string]*string{
		"type": b.Type, "subject": b.Subject, "description": b.Description, "dueDate": b.DueDate,
		"contactId": b.ContactID, "companyId": b.CompanyID, "dealId": b.DealID,
	})
}

func (b activityBody) apply(a *models.Activity) {
	if b.Type != nil {
		a.Type = models.ActivityType(*b.Type)
	}
	if b.Subject != nil {
		a.Subject = strings.TrimSpace(*b.Subject)
	}
	if b.Description != nil {
		a.Description = *b.Description
	}
	if b.DueDate != nil {
		a.DueDate = nil
		if t, ok := validate.ParseDateTime(strings.TrimSpace(*b.DueDate)); ok {
			t = t.UTC()
			a.DueDate = &t
		}
	}
	if b.Completed != nil {
		a.Completed = *b.Completed
	}
	if b.ContactID != nil {
		a.ContactID = *b.ContactID
	}
	if b.CompanyID != nil {
		a.CompanyID = *b.CompanyID
	}
	if b.DealID != nil {
		a.DealID = *b.DealID
	}
}

// dealUsable reports whether the caller can see deal id.
func (s *Server) dealUsable(c *gin.Context, id string) bool {
	if id == "" {
		return true
	}
	got, err := db.ResourceAccess(s.db, models.ResourceDeal, id, currentUser(c).ID)
	if err != nil && !isNotFound(err) {
		s.internalError(c, err)
		return false
	}
	if !got.CanView() {
		failValidation(c, validate.Errors{"dealId": "Deal not found"})
		return false
	}
	return true
}

func (s *Server) activityParentsUsable(c *gin.Context, b activityBody) bool {
	if b.CompanyID != nil && !s.companyUsable(c, *b.CompanyID) {
		return false
	}
	if b.ContactID != nil && !s.contactUsable(c, *b.ContactID) {
		return false
	}
	if b.DealID != nil && !s.dealUsable(c, *b.DealID) {
		return false
	}
	return true
}

func (s *Server) listActivities(c *gin.Context) {
	q := db.ActivityQuery{
		ListQuery: listQuery(c),
		Type:      c.Query("type"),
		ContactID: c.Query("contactId"),
		CompanyID: c.Query("companyId"),
		DealID:    c.Query("dealId"),
	}
	if raw := c.Query("completed"); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			failValidation(c, validate.Errors{"completed": "Completed must be true or false"})
			return
		}
		q.Completed = &done
	}
	activities, total, err := db.ListActivities(s.db, currentUser(c).ID, q)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities, "pagination": pagination(q.ListQuery, total)})
}

func (s *Server) getActivity(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceActivity, id, db.AccessView) {
		return
	}
	a, err := db.GetActivity(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": a})
}

func (s *Server) createActivity(c *gin.Context) {
	var body activityBody
	if !bindJSON(c, &body) {
		return
	}
	values := body.values()
	for _, k := range []string{"type", "subject"} {
		if _, ok := values[k]; !ok {
			values[k] = ""
		}
	}
	if errs := validate.ActivityForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}
	if !s.activityParentsUsable(c, body) {
		return
	}

	a := &models.Activity{OwnerID: currentUser(c).ID}
	body.apply(a)
	if err := db.CreateActivity(s.db, a); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": a})
}

func (s *Server) updateActivity(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceActivity, id, db.AccessEdit) {
		return
	}
	var body activityBody
	if !bindJSON(c, &body) {
		return
	}
	if errs := validate.ActivityForm.ValidatePartial(body.values()); errs != nil {
		failValidation(c, errs)
		return
	}

	a, err := db.GetActivity(s.db, id)
	if err != nil || a == nil {
		s.storeError(c, orNotFound(err), "Activity not found")
		return
	}
	links := body
	links.ContactID = sameRef(body.ContactID, a.ContactID)
	links.CompanyID = sameRef(body.CompanyID, a.CompanyID)
	links.DealID = sameRef(body.DealID, a.DealID)
	if !s.activityParentsUsable(c, links) {
		return
	}
	body.apply(a)
	if err := db.UpdateActivity(s.db, a); err != nil {
		s.storeError(c, err, "Activity not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": a})
}

func (s *Server) deleteActivity(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceActivity, id, db.AccessOwner) {
		return
	}
	if err := db.DeleteActivity(s.db, id); err != nil {
		s.storeError(c, err, "Activity not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted"})
}
