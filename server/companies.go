// ABOUTME: Company handlers scoped to the companies the caller created
// ABOUTME: Deleting a company with contacts answers 409 Conflict
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type companyBody struct {
	Name     *string `json:"name"`
	Industry *string `json:"industry"`
	Website  *string `json:"website"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

func (b companyBody) values() map[string]string {
	return present(map[string]*string{
		"name": b.Name, "industry": b.Industry, "website": b.Website,
		"phone": b.Phone, "address": b.Address, "notes": b.Notes,
	})
}

func (b companyBody) apply(co *models.Company) {
	if b.Name != nil {
		co.Name = strings.TrimSpace(*b.Name)
	}
	if b.Industry != nil {
		co.Industry = *b.Industry
	}
	if b.Website != nil {
		co.Website = strings.TrimSpace(*b.Website)
	}
	if b.Phone != nil {
		co.Phone = *b.Phone
	}
	if b.Address != nil {
		co.Address = *b.Address
	}
	if b.Notes != nil {
		co.Notes = *b.Notes
	}
}

// ownCompany loads id when it belongs to the caller, answering 404 otherwise.
func (s *Server) ownCompany(c *gin.Context, id string) *models.Company {
	co, err := db.GetCompany(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return nil
	}
	if co == nil || co.OwnerID != currentUser(c).ID {
		fail(c, http.StatusNotFound, "Company not found")
		return nil
	}
	return co
}

func (s *Server) listCompanies(c *gin.Context) {
	q := db.CompanyQuery{ListQuery: listQuery(c), Industry: c.Query("industry")}
	companies, total, err := db.ListCompanies(s.db, currentUser(c).ID, q)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies, "pagination": pagination(q.ListQuery, total)})
}

func (s *Server) getCompany(c *gin.Context) {
	if co := s.ownCompany(c, c.Param("id")); co != nil {
		c.JSON(http.StatusOK, gin.H{"company": co})
	}
}

func (s *Server) createCompany(c *gin.Context) {
	var body companyBody
	if !bindJSON(c, &body) {
		return
	}
	values := body.values()
	if _, ok := values["name"]; !ok {
		values["name"] = ""
	}
	if errs := validate.CompanyForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}

	co := &models.Company{OwnerID: currentUser(c).ID}
	body.apply(co)
	if err := db.CreateCompany(s.db, co); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"company": co})
}

func (s *Server) updateCompany(c *gin.Context) {
	co := s.ownCompany(c, c.Param("id"))
	if co == nil {
		return
	}
	var body companyBody
	if !bindJSON(c, &body) {
		return
	}
	if errs := validate.CompanyForm.ValidatePartial(body.values()); errs != nil {
		failValidation(c, errs)
		return
	}

	body.apply(co)
	if err := db.UpdateCompany(s.db, co); err != nil {
		s.storeError(c, err, "Company not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": co})
}

func (s *Server) deleteCompany(c *gin.Context) {
	co := s.ownCompany(c, c.Param("id"))
	if co == nil {
		return
	}
	if err := db.DeleteCompany(s.db, co.ID); err != nil {
		s.storeError(c, err, "Company not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Company deleted"})
}
