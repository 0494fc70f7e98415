// ABOUTME: Admin user management handlers
// ABOUTME: Admins cannot delete their own account
package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Duckiduc/omw-crm-sub001/db"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type userBody struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

func (b userBody) values() map[string]string {
	return present(map[string]*string{"name": b.Name, "email": b.Email, "password": b.Password, "role": b.Role})
}

func (s *Server) listUsers(c *gin.Context) {
	q := db.UserQuery{ListQuery: listQuery(c), Role: c.Query("role")}
	users, total, err := db.ListUsers(s.db, q)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "pagination": pagination(q.ListQuery, total)})
}

func (s *Server) getUser(c *gin.Context) {
	user, err := db.GetUser(s.db, c.Param("id"))
	if err != nil || user == nil {
		s.storeError(c, orNotFound(err), "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) createUser(c *gin.Context) {
	var body userBody
	if !bindJSON(c, &body) {
		return
	}
	values := body.values()
	for _, k := range []string{"name", "email", "password"} {
		if _, ok := values[k]; !ok {
			values[k] = ""
		}
	}
	if errs := validate.UserCreateForm.Validate(values); errs != nil {
		failValidation(c, errs)
		return
	}

	user := &models.User{Name: strings.TrimSpace(*body.Name), Email: strings.TrimSpace(*body.Email), Role: models.RoleUser}
	if r := str(body.Role); r != "" {
		user.Role = models.Role(r)
	}
	if err := db.CreateUser(s.db, user, *body.Password); err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (s *Server) updateUser(c *gin.Context) {
	var body userBody
	if !bindJSON(c, &body) {
		return
	}
	if errs := validate.UserUpdateForm.ValidatePartial(body.values()); errs != nil {
		failValidation(c, errs)
		return
	}

	patch := db.UserPatch{Name: body.Name, Email: body.Email, Password: body.Password}
	if body.Role != nil && *body.Role != "" {
		role := models.Role(*body.Role)
		patch.Role = &role
	}
	if body.Password != nil && *body.Password == "" {
		patch.Password = nil
	}
	user, err := db.UpdateUser(s.db, c.Param("id"), patch)
	if err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (s *Server) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == currentUser(c).ID {
		fail(c, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	if err := db.DeleteUser(s.db, id); err != nil {
		s.storeError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
