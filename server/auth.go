// ABOUTME: Authentication handlers: login, register, me, logout and password change
// ABOUTME: The first account registered on an empty database becomes an admin
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := db.CreateSession(s.db, user.ID, s.cfg.TokenTTL())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

func (s *Server) login(c *gin.Context) {
	var body credentials
	if !bindJSON(c, &body) {
		return
	}
	if errs := validate.LoginForm.Validate(map[string]string{"email": body.Email, "password": body.Password}); errs != nil {
		failValidation(c, errs)
		return
	}

	user, err := db.Authenticate(s.db, body.Email, body.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.issueToken(c, http.StatusOK, user)
}

func (s *Server) register(c *gin.Context) {
	var body credentials
	if !bindJSON(c, &body) {
		return
	}
	values := map[string]string{"name": body.Name, "email": body.Email, "password": body.Password}
	if errs := validate.RegisterForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}

	count, err := db.CountUsers(s.db)
	if err != nil {
		s.internalError(c, err)
		return
	}
	user := &models.User{Name: strings.TrimSpace(body.Name), Email: body.Email, Role: models.RoleUser}
	if count == 0 {
		user.Role = models.RoleAdmin
	}
	if err := db.CreateUser(s.db, user, body.Password); err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	s.issueToken(c, http.StatusCreated, user)
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

func (s *Server) logout(c *gin.Context) {
	if err := db.DeleteSession(s.db, c.GetString("token")); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) changePassword(c *gin.Context) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !bindJSON(c, &body) {
		return
	}
	values := map[string]string{"currentPassword": body.CurrentPassword, "newPassword": body.NewPassword}
	if errs := validate.PasswordChangeForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}

	err := db.ChangePassword(s.db, currentUser(c).ID, body.CurrentPassword, body.NewPassword)
	if errors.Is(err, db.ErrInvalidCredentials) {
		fail(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
