// ABOUTME: Admin user management CLI commands
// ABOUTME: Every command checks the session role before calling the backend
package cli

import (
	"context"
	"fmt"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

func ListUsersCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireAdmin(client); err != nil {
		return err
	}
	fs := newFlagSet("list-users")
	query := fs.String("query", "", "Search by name or email")
	role := fs.String("role", "", "Filter by role (user, admin)")
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 20, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := client.Users.List(ctx, api.UserFilter{
		ListParams: api.ListParams{Page: *page, Limit: *limit, Search: *query},
		Role:       models.Role(*role),
	})
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(result.Items) == 0 {
		printf("No users found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tROLE\tCREATED\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t----\t-------\t--")
	for _, u := range result.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Name, u.Email, u.Role, fmtDate(&u.CreatedAt), u.ID)
	}
	_ = w.Flush()

	printFooter(result.Pagination)
	return nil
}

func AddUserCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireAdmin(client); err != nil {
		return err
	}
	fs := newFlagSet("add-user")
	name := fs.String("name", "", "Name (required)")
	email := fs.String("email", "", "Email (required)")
	password := fs.String("password", "", "Initial password (prompted when omitted)")
	role := fs.String("role", string(models.RoleUser), "user or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		pw, err := readPassword("Initial password: ")
		if err != nil {
			return err
		}
		*password = pw
	}

	user, err := client.Users.Create(ctx, api.UserInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     models.Role(*role),
	})
	if err != nil {
		return describe(err)
	}
	printf("✓ User created: %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func UpdateUserCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireAdmin(client); err != nil {
		return err
	}
	fs := newFlagSet("update-user")
	var name, email, password, role stringFlag
	fs.Var(&name, "name", "Name")
	fs.Var(&email, "email", "Email")
	fs.Var(&password, "password", "New password")
	fs.Var(&role, "role", "user or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "user ID")
	if err != nil {
		return err
	}

	u := api.UserUpdate{Name: name.ptr(), Email: email.ptr(), Password: password.ptr()}
	if role.set {
		r := models.Role(role.value)
		u.Role = &r
	}
	user, err := client.Users.Update(ctx, id, u)
	if err != nil {
		return describe(err)
	}
	printf("✓ User updated: %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func DeleteUserCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireAdmin(client); err != nil {
		return err
	}
	fs := newFlagSet("delete-user")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "user ID")
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Delete user %s and everything they own?", id), *yes) {
		printf("Cancelled\n")
		return nil
	}
	if err := client.Users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	printf("✓ User deleted\n")
	return nil
}
