// ABOUTME: Contact handlers including status changes and the tag listing
// ABOUTME: Request bodies are validated with the shared contact form schema
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type contactBody struct {
	Name      *string        `json:"name"`
	Email     *string        `json:"email"`
	Phone     *string        `json:"phone"`
	Position  *string        `json:"position"`
	CompanyID *string        `json:"companyId"`
	Status    *string        `json:"status"`
	Tags      *models.TagSet `json:"tags"`
	Notes     *string        `json:"notes"`
}

func (b contactBody) values() map[string]string {
	v := present(map[string]*string{
		"name": b.Name, "email": b.Email, "phone": b.Phone, "position": b.Position,
		"companyId": b.CompanyID, "status": b.Status, "notes": b.Notes,
	})
	if b.Tags != nil {
		v["tags"] = b.Tags.String()
	}
	return v
}

func (b contactBody) apply(c *models.Contact) {
	if b.Name != nil {
		c.Name = strings.TrimSpace(*b.Name)
	}
	if b.Email != nil {
		c.Email = strings.TrimSpace(*b.Email)
	}
	if b.Phone != nil {
		c.Phone = *b.Phone
	}
	if b.Position != nil {
		c.Position = *b.Position
	}
	if b.CompanyID != nil {
		c.CompanyID = *b.CompanyID
	}
	if b.Status != nil && *b.Status != "" {
		c.Status = models.ContactStatus(*b.Status)
	}
	if b.Tags != nil {
		c.Tags = *b.Tags
	}
	if b.Notes != nil {
		c.Notes = *b.Notes
	}
}

// sameRef drops p when it repeats the stored reference, so an editor can send
// back a link they could not create themselves.
func sameRef(p *string, stored string) *string {
	if p != nil && *p == stored {
		return nil
	}
	return p
}

// companyUsable reports whether the caller may attach a contact or deal to id.
func (s *Server) companyUsable(c *gin.Context, id string) bool {
	if id == "" {
		return true
	}
	co, err := db.GetCompany(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return false
	}
	if co == nil || co.OwnerID != currentUser(c).ID {
		failValidation(c, validate.Errors{"companyId": "Company not found"})
		return false
	}
	return true
}

func (s *Server) listContacts(c *gin.Context) {
	q := db.ContactQuery{
		ListQuery: listQuery(c),
		Status:    c.Query("status"),
		Tags:      splitList(c.Query("tags")),
		CompanyID: c.Query("companyId"),
	}
	contacts, total, err := db.ListContacts(s.db, currentUser(c).ID, q)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "pagination": pagination(q.ListQuery, total)})
}

func (s *Server) contactTags(c *gin.Context) {
	tags, err := db.ContactTags(s.db, currentUser(c).ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (s *Server) getContact(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceContact, id, db.AccessView) {
		return
	}
	contact, err := db.GetContact(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": contact})
}

func (s *Server) createContact(c *gin.Context) {
	var body contactBody
	if !bindJSON(c, &body) {
		return
	}
	values := body.values()
	if _, ok := values["name"]; !ok {
		values["name"] = ""
	}
	if errs := validate.ContactForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}
	if !s.companyUsable(c, str(body.CompanyID)) {
		return
	}

	contact := &models.Contact{OwnerID: currentUser(c).ID, Status: models.DefaultContactStatus}
	body.apply(contact)
	if err := db.CreateContact(s.db, contact); err != nil {
		s.internalError(c, err)
		return
	}
	created, err := db.GetContact(s.db, contact.ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": created})
}

func (s *Server) updateContact(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceContact, id, db.AccessEdit) {
		return
	}
	var body contactBody
	if !bindJSON(c, &body) {
		return
	}
	if errs := validate.ContactForm.ValidatePartial(body.values()); errs != nil {
		failValidation(c, errs)
		return
	}

	contact, err := db.GetContact(s.db, id)
	if err != nil || contact == nil {
		s.storeError(c, orNotFound(err), "Contact not found")
		return
	}
	if ref := sameRef(body.CompanyID, contact.CompanyID); ref != nil && !s.companyUsable(c, *ref) {
		return
	}
	body.apply(contact)
	if err := db.UpdateContact(s.db, contact); err != nil {
		s.storeError(c, err, "Contact not found")
		return
	}
	updated, err := db.GetContact(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": updated})
}

func (s *Server) updateContactStatus(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceContact, id, db.AccessEdit) {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &body) {
		return
	}
	status, ok := models.ParseContactStatus(body.Status)
	if !ok {
		failValidation(c, validate.Errors{"status": "Status must be one of: hot, warm, cold, allGood"})
		return
	}
	if err := db.UpdateContactStatus(s.db, id, status); err != nil {
		s.storeError(c, err, "Contact not found")
		return
	}
	contact, err := db.GetContact(s.db, id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contact": contact})
}

func (s *Server) deleteContact(c *gin.Context) {
	id := c.Param("id")
	if !s.access(c, models.ResourceContact, id, db.AccessOwner) {
		return
	}
	if err := db.DeleteContact(s.db, id); err != nil {
		s.storeError(c, err, "Contact not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted"})
}

func orNotFound(err error) error {
	if err == nil {
		return db.ErrNotFound
	}
	return err
}
