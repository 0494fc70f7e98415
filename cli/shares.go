// ABOUTME: Sharing CLI commands
// ABOUTME: Lists shares in both directions, grants view or edit access and revokes it
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

// ListSharesCommand prints the merged shared-by-me and shared-with-me lists.
func ListSharesCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("list-shares")
	direction := fs.String("direction", "all", "all, by-me or with-me")
	kind := fs.String("type", "", "Filter by resource type (contact, activity, deal)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := models.ShareDirection(*direction)
	switch dir {
	case models.ShareAll, models.ShareByMe, models.ShareWithMe:
	default:
		return fmt.Errorf("invalid direction: %s (valid: all, by-me, with-me)", *direction)
	}

	shares, err := client.Shares.List(ctx, api.ShareFilter{Direction: dir, ResourceType: models.ResourceType(*kind)})
	if err != nil {
		return fmt.Errorf("failed to list shares: %w", err)
	}
	if len(shares) == 0 {
		printf("No shares found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "DIRECTION\tTYPE\tRESOURCE\tWITH\tPERMISSION\tSHARED\tID")
	_, _ = fmt.Fprintln(w, "---------\t----\t--------\t----\t----------\t------\t--")
	for _, s := range shares {
		other := s.SharedWithName
		if s.Direction == models.ShareWithMe {
			other = s.OwnerName
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Direction, s.ResourceType, dash(s.ResourceName), dash(other), s.Permission,
			fmtDate(&s.CreatedAt), s.ID)
	}
	_ = w.Flush()

	printf("\nTotal: %d share(s)\n", len(shares))
	return nil
}

// ShareableUsersCommand lists who the current user can share with.
func ShareableUsersCommand(ctx context.Context, client *api.Client, _ []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	users, err := client.Shares.ShareableUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t--")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", u.Name, u.Email, u.ID)
	}
	return w.Flush()
}

// ShareCommand grants another user access to a contact, activity or deal.
func ShareCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("share")
	kind := fs.String("type", "", "contact, activity or deal (required)")
	id := fs.String("id", "", "ID of the record to share (required)")
	user := fs.String("user", "", "User ID or email (required)")
	permission := fs.String("permission", string(models.PermissionView), "view or edit")
	message := fs.String("message", "", "Optional message for the recipient")
	if err := fs.Parse(args); err != nil {
		return err
	}

	userID := *user
	if strings.Contains(userID, "@") {
		users, err := client.Shares.ShareableUsers(ctx)
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		userID = ""
		for _, u := range users {
			if strings.EqualFold(u.Email, *user) {
				userID = u.ID
				break
			}
		}
		if userID == "" {
			return fmt.Errorf("no shareable user with email %s", *user)
		}
	}

	share, err := client.Shares.Create(ctx, api.ShareInput{
		ResourceType:     models.ResourceType(*kind),
		ResourceID:       *id,
		SharedWithUserID: userID,
		Permission:       models.Permission(*permission),
		Message:          *message,
	})
	if err != nil {
		return describe(err)
	}
	printf("✓ Shared %s with %s (%s)\n", dash(share.ResourceName), dash(share.SharedWithName), share.Permission)
	return nil
}

// UnshareCommand revokes a share. Revocation cannot be undone.
func UnshareCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("unshare")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "share ID")
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Revoke share %s? This cannot be undone.", id), *yes) {
		printf("Cancelled\n")
		return nil
	}
	if err := client.Shares.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke share: %w", err)
	}
	printf("✓ Share revoked\n")
	return nil
}
