// ABOUTME: Contact CLI commands
// ABOUTME: Human-friendly commands for listing, editing, tagging and deleting contacts
package cli

import (
	"context"
	"fmt"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

// ListContactsCommand lists one page of contacts.
func ListContactsCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("list-contacts")
	query := fs.String("query", "", "Search by name, email or company")
	status := fs.String("status", "", "Filter by status (hot, warm, cold, allGood)")
	tags := fs.String("tags", "", "Only contacts with all of these comma separated tags")
	company := fs.String("company", "", "Filter by company ID")
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 20, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := api.ContactFilter{
		ListParams: api.ListParams{Page: *page, Limit: *limit, Search: *query},
		Tags:       models.ParseTags(*tags),
		CompanyID:  *company,
	}
	if *status != "" {
		s, ok := models.ParseContactStatus(*status)
		if !ok {
			return fmt.Errorf("invalid status: %s (valid: hot, warm, cold, allGood)", *status)
		}
		f.Status = s
	}

	result, err := client.Contacts.List(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}
	if len(result.Items) == 0 {
		printf("No contacts found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tCOMPANY\tSTATUS\tTAGS\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t-------\t------\t----\t--")
	for _, c := range result.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Name, dash(c.Email), dash(c.Company), c.Status, dash(c.Tags.String()), c.ID)
	}
	_ = w.Flush()

	printFooter(result.Pagination)
	return nil
}

// GetContactCommand prints one contact with its notes.
func GetContactCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("get-contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "contact ID")
	if err != nil {
		return err
	}

	contact, err := client.Contacts.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}
	notes, err := client.ContactNotes.List(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get notes: %w", err)
	}

	printContact(contact)
	if len(notes) > 0 {
		printf("\nNotes:\n")
		for _, n := range notes {
			printf("  [%s] %s: %s\n", fmtDate(&n.CreatedAt), dash(n.AuthorName), n.Content)
		}
	}
	return nil
}

func printContact(c *models.Contact) {
	printf("%s (ID: %s)\n", c.Name, c.ID)
	printf("  Status:   %s\n", c.Status)
	if c.Email != "" {
		printf("  Email:    %s\n", c.Email)
	}
	if c.Phone != "" {
		printf("  Phone:    %s\n", c.Phone)
	}
	if c.Position != "" {
		printf("  Position: %s\n", c.Position)
	}
	if c.Company != "" {
		printf("  Company:  %s\n", c.Company)
	}
	if len(c.Tags) > 0 {
		printf("  Tags:     %s\n", c.Tags.String())
	}
	if c.Notes != "" {
		printf("  Notes:    %s\n", c.Notes)
	}
}

// AddContactCommand adds a new contact.
func AddContactCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("add-contact")
	name := fs.String("name", "", "Contact name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	position := fs.String("position", "", "Job title")
	company := fs.String("company", "", "Company ID")
	status := fs.String("status", "", "hot, warm, cold or allGood (default allGood)")
	tags := fs.String("tags", "", "Comma separated tags")
	notes := fs.String("notes", "", "Notes about the contact")
	if err := fs.Parse(args); err != nil {
		return err
	}

	contact, err := client.Contacts.Create(ctx, api.ContactInput{
		Name:      *name,
		Email:     *email,
		Phone:     *phone,
		Position:  *position,
		CompanyID: *company,
		Status:    models.ContactStatus(*status),
		Tags:      models.ParseTags(*tags),
		Notes:     *notes,
	})
	if err != nil {
		return describe(err)
	}

	printf("✓ Contact created: %s (ID: %s)\n", contact.Name, contact.ID)
	if contact.Email != "" {
		printf("  Email: %s\n", contact.Email)
	}
	if contact.Company != "" {
		printf("  Company: %s\n", contact.Company)
	}
	printf("  Status: %s\n", contact.Status)
	return nil
}

// UpdateContactCommand sends only the flags that were given.
func UpdateContactCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("update-contact")
	var name, email, phone, position, company, tags, notes stringFlag
	fs.Var(&name, "name", "Contact name")
	fs.Var(&email, "email", "Email address")
	fs.Var(&phone, "phone", "Phone number")
	fs.Var(&position, "position", "Job title")
	fs.Var(&company, "company", "Company ID (empty to clear)")
	fs.Var(&tags, "tags", "Replacement comma separated tags")
	fs.Var(&notes, "notes", "Notes about the contact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "contact ID")
	if err != nil {
		return err
	}

	u := api.ContactUpdate{
		Name:      name.ptr(),
		Email:     email.ptr(),
		Phone:     phone.ptr(),
		Position:  position.ptr(),
		CompanyID: company.ptr(),
		Notes:     notes.ptr(),
	}
	if tags.set {
		t := models.ParseTags(tags.value)
		u.Tags = &t
	}

	contact, err := client.Contacts.Update(ctx, id, u)
	if err != nil {
		return describe(err)
	}
	printf("✓ Contact updated: %s (ID: %s)\n", contact.Name, contact.ID)
	return nil
}

// SetStatusCommand changes a contact's status: set-status <id> <status>.
func SetStatusCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: set-status <contact-id> <hot|warm|cold|allGood>")
	}
	status, ok := models.ParseContactStatus(args[1])
	if !ok {
		return fmt.Errorf("invalid status: %s (valid: hot, warm, cold, allGood)", args[1])
	}

	contact, err := client.Contacts.UpdateStatus(ctx, args[0], status)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	printf("✓ %s is now %s\n", contact.Name, contact.Status)
	return nil
}

// DeleteContactCommand deletes a contact after confirmation.
func DeleteContactCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("delete-contact")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "contact ID")
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Delete contact %s?", id), *yes) {
		printf("Cancelled\n")
		return nil
	}
	if err := client.Contacts.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	printf("✓ Contact deleted\n")
	return nil
}

// TagsCommand lists tags in use, optionally those starting with --prefix.
func TagsCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("tags")
	prefix := fs.String("prefix", "", "Only tags starting with this text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tags, err := client.Contacts.SuggestTags(ctx, nil, *prefix, 0)
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}
	if len(tags) == 0 {
		printf("No tags found\n")
		return nil
	}
	for _, t := range tags {
		printf("%s\n", t)
	}
	return nil
}
