// ABOUTME: Deal handlers and the pipeline stage listing
// ABOUTME: Value, probability and close date are range checked with the deal form
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type dealBody struct {
	Title             *string  `json:"title"`
	Value             *float64 `json:"value"`
	Currency          *string  `json:"currency"`
	StageID           *string  `json:"stageId"`
	ContactID         *string  `json:"contactId"`
	CompanyID         *string  `json:"companyId"`
	Probability       *int     `json:"probability"`
	ExpectedCloseDate *string  `json:"expectedCloseDate"`
	Notes             *string  `json:"notes"`
}

func (b dealBody) values() map[string]string {
	v := present(map[string]*string{
		"title": b.Title, "currency": b.Currency, "stageId": b.StageID, "contactId": b.ContactID,
		"companyId": b.CompanyID, "expectedCloseDate": b.ExpectedCloseDate, "notes": b.Notes,
	})
	if b.Value != nil {
		v["value"] = strconv.FormatFloat(*b.Value, 'f', -1, 64)
	}
	if b.Probability != nil {
		v["probability"] = strconv.Itoa(*b.Probability)
	}
	return v
}

func (b dealBody) apply(d *models.Deal) {
	if b.Title != nil {
		d.Title = strings.TrimSpace(*b.Title)
	}
	if b.Value != nil {
		d.Value = *b.Value
	}
	if b.Currency != nil && *b.Currency != "" {
		d.Currency = *b.Currency
	}
	if b.StageID != nil {
		d.StageID = *b.StageID
	}
	if b.ContactID != nil {
		d.ContactID = *b.ContactID
	}
	if b.CompanyID != nil {
		d.CompanyID = *b.CompanyID
	}
	if b.Probability != nil {
		d.Probability = *b.Probability
	}
	if b.ExpectedCloseDate != nil {
		d.ExpectedCloseDate = nil
		if t, err := time.Parse("2006-01-02", *b.ExpectedCloseDate); err == nil {
			d.ExpectedCloseDate = &t
		}
	}
	if b.Notes != nil {
		d.Notes = *b.Notes
	}
}

// contactUsable reports whether the caller can see contact id.
func (s *Server) contactUsable(c *gin.Context, id string) bool {
	if id == "" {
		return true
	}
	got, err := db.ResourceAccess(s.db, models.ResourceContact, id, currentUser(c).ID)
	if err != nil && err != db.ErrNotFound {
		s.internalError(c, err)
		return false
	}
	if !got.CanView() {
		failValidation(c, validate.Errors{"contactId": "Contact not found"})
		return false
	}
	return true
}

func (s *Server) listStages(c *gin.Context) {
	stages, err := db.ListStages(s.db)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

func (s *Server) listDeals(c *gin.Context) {
	q := db.DealQuery{
		ListQuery: listQuery(c),
		StageID:   c.Query("stageId"),
		ContactID: c.Query("contactId"),
		CompanyID: c.Query("companyId"),
	}
	deals, total, err := db.ListDeals(s.db, currentUser(c).ID, q)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deals": deals, "pagination": pagination(q.ListQuery, total)})
}

func (s *Server) getDeal(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceDeal, id, db.AccessView) {
		return
	}
	deal, err := db.GetDeal(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

func (s *Server) createDeal(c *gin.Context) {
	var body dealBody
	if !bindJSON(c, &body) {
		return
	}
	values := body.values()
	for _, k := range []string{"title", "stageId"} {
		if _, ok := values[k]; !ok {
			values[k] = ""
		}
	}
	if errs := validate.DealForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}
	if !s.companyUsable(c, str(body.CompanyID)) || !s.contactUsable(c, str(body.ContactID)) {
		return
	}

	deal := &models.Deal{OwnerID: currentUser(c).ID, Currency: models.DefaultCurrency}
	body.apply(deal)
	if err := db.CreateDeal(s.db, deal); err != nil {
		if isNotFound(err) {
			failValidation(c, validate.Errors{"stageId": "Stage not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	created, err := db.GetDeal(s.db, deal.ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"deal": created})
}

func (s *Server) updateDeal(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceDeal, id, db.AccessEdit) {
		return
	}
	var body dealBody
	if !bindJSON(c, &body) {
		return
	}
	if errs := validate.DealForm.ValidatePartial(body.values()); errs != nil {
		failValidation(c, errs)
		return
	}

	deal, err := db.GetDeal(s.db, id)
	if err != nil || deal == nil {
		s.storeError(c, orNotFound(err), "Deal not found")
		return
	}
	if ref := sameRef(body.CompanyID, deal.CompanyID); ref != nil && !s.companyUsable(c, *ref) {
		return
	}
	if ref := sameRef(body.ContactID, deal.ContactID); ref != nil && !s.contactUsable(c, *ref) {
		return
	}
	body.apply(deal)
	if err := db.UpdateDeal(s.db, deal); err != nil {
		if isNotFound(err) {
			failValidation(c, validate.Errors{"stageId": "Stage not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	updated, err := db.GetDeal(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deal": updated})
}

func (s *Server) deleteDeal(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceDeal, id, db.AccessOwner) {
		return
	}
	if err := db.DeleteDeal(s.db, id); err != nil {
		s.storeError(c, err, "Deal not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted"})
}
