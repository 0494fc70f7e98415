// ABOUTME: Share handlers for granting and revoking access to contacts, deals and activities
// ABOUTME: Only a resource's owner can share it, and never with themselves
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

func (s *Server) sharedByMe(c *gin.Context) {
	shares, err := db.SharesByOwner(s.db, currentUser(c).ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": shares})
}

func (s *Server) sharedWithMe(c *gin.Context) {
	shares, err := db.SharesWithUser(s.db, currentUser(c).ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shares": shares})
}

func (s *Server) shareableUsers(c *gin.Context) {
	users, err := db.ShareableUsers(s.db, currentUser(c).ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) createShare(c *gin.Context) {
	var body struct {
		ResourceType     string `json:"resourceType"`
		ResourceID       string `json:"resourceId"`
		SharedWithUserID string `json:"sharedWithUserId"`
		Permission       string `json:"permission"`
		Message          string `json:"message"`
	}
	if !bindJSON(c, &body) {
		return
	}
	values := map[string]string{
		"resourceType":     body.ResourceType,
		"resourceId":       body.ResourceID,
		"sharedWithUserId": body.SharedWithUserID,
		"permission":       body.Permission,
		"message":          body.Message,
	}
	if errs := validate.ShareForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}

	me := currentUser(c)
	rt := models.ResourceType(body.ResourceType)
	if !s.access(c, rt, body.ResourceID, db.AccessOwner) {
		return
	}
	if body.SharedWithUserID == me.ID {
		failValidation(c, validate.Errors{"sharedWithUserId": "You cannot share with yourself"})
		return
	}
	target, err := db.GetUser(s.db, body.SharedWithUserID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if target == nil {
		failValidation(c, validate.Errors{"sharedWithUserId": "User not found"})
		return
	}

	share := &models.Share{
		ResourceType:     rt,
		ResourceID:       body.ResourceID,
		OwnerID:          me.ID,
		SharedWithUserID: target.ID,
		Permission:       models.Permission(body.Permission),
		Message:          strings.TrimSpace(body.Message),
	}
	if err := db.CreateShare(s.db, share); err != nil {
		s.storeError(c, err, "Share not found")
		return
	}
	created, err := db.GetShare(s.db, share.ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"share": created})
}

func (s *Server) deleteShare(c *gin.Context) {
	if err := db.DeleteShare(s.db, c.Param("id"), currentUser(c).ID); err != nil {
		s.storeError(c, err, "Share not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Share removed"})
}
