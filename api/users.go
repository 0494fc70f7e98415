// ABOUTME: Admin user management over /admin/users
// ABOUTME: The backend rejects non-admin callers with 403
package api

import (
	"context"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

type UserService struct {
	c *Client
}

type UserInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type UserUpdate struct {
	Name     *string      `json:"name,omitempty"`
	Email    *string      `json:"email,omitempty"`
	Password *string      `json:"password,omitempty"`
	Role     *models.Role `json:"role,omitempty"`
}

func (s *UserService) List(ctx context.Context, f UserFilter) (models.Page[models.User], error) {
	return decodeList[models.User](s.c.get(ctx, "/admin/users", f.Query()), "users")
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return decodeOne[models.User](s.c.get(ctx, path("/admin/users", id), nil), "user")
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	errs := validate.UserCreateForm.Validate(map[string]string{
		"name": in.Name, "email": in.Email, "password": in.Password, "role": string(in.Role),
	})
	if errs != nil {
		return nil, errs
	}
	return decodeOne[models.User](s.c.post(ctx, "/admin/users", in), "user")
}

func (s *UserService) Update(ctx context.Context, id string, u UserUpdate) (*models.User, error) {
	v := map[string]string{}
	putIf(v, "name", u.Name)
	putIf(v, "email", u.Email)
	putIf(v, "password", u.Password)
	if u.Role != nil {
		v["role"] = string(*u.Role)
	}
	if errs := validate.UserUpdateForm.ValidatePartial(v); errs != nil {
		return nil, errs
	}
	return decodeOne[models.User](s.c.put(ctx, path("/admin/users", id), u), "user")
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, path("/admin/users", id)).Err()
}
