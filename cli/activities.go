// ABOUTME: Activity CLI commands
// ABOUTME: Lists calls, meetings and tasks with pending and overdue filters and marks them complete
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

// ListActivitiesCommand lists one page of activities. --overdue filters the
// fetched page only, so a page can show fewer rows than --limit.
func ListActivitiesCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("list-activities")
	query := fs.String("query", "", "Search by subject")
	kind := fs.String("type", "", "Filter by type (call, email, meeting, note, task)")
	pending := fs.Bool("pending", false, "Only activities not yet completed")
	done := fs.Bool("completed", false, "Only completed activities")
	overdue := fs.Bool("overdue", false, "Only pending activities past their due date")
	contact := fs.String("contact", "", "Filter by contact ID")
	company := fs.String("company", "", "Filter by company ID")
	deal := fs.String("deal", "", "Filter by deal ID")
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 20, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pending && *done {
		return fmt.Errorf("--pending and --completed cannot be combined")
	}

	f := api.ActivityFilter{
		ListParams: api.ListParams{Page: *page, Limit: *limit, Search: *query},
		Type:       models.ActivityType(*kind),
		ContactID:  *contact,
		CompanyID:  *company,
		DealID:     *deal,
		Overdue:    *overdue,
	}
	switch {
	case *pending || *overdue:
		f.Completed = api.Bool(false)
	case *done:
		f.Completed = api.Bool(true)
	}

	result, err := client.Activities.List(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}
	if len(result.Items) == 0 {
		printf("No activities found\n")
		printFooter(result.Pagination)
		return nil
	}

	now := time.Now()
	w := newTable()
	_, _ = fmt.Fprintln(w, "DONE\tTYPE\tSUBJECT\tDUE\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-------\t---\t--")
	for _, a := range result.Items {
		mark := "[ ]"
		if a.Completed {
			mark = "[x]"
		}
		due := fmtDateTime(a.DueDate)
		if a.IsOverdue(now) {
			due += " (overdue)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", mark, a.Type, a.Subject, due, a.ID)
	}
	_ = w.Flush()

	printFooter(result.Pagination)
	return nil
}

func GetActivityCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("get-activity")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "activity ID")
	if err != nil {
		return err
	}

	a, err := client.Activities.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}
	notes, err := client.ActivityNotes.List(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get notes: %w", err)
	}

	printf("%s (ID: %s)\n", a.Subject, a.ID)
	printf("  Type:      %s\n", a.Type)
	printf("  Due:       %s\n", fmtDateTime(a.DueDate))
	printf("  Completed: %t\n", a.Completed)
	if a.Description != "" {
		printf("  Details:   %s\n", a.Description)
	}
	if len(notes) > 0 {
		printf("\nNotes:\n")
		for _, n := range notes {
			printf("  [%s] %s: %s\n", fmtDate(&n.CreatedAt), dash(n.AuthorName), n.Content)
		}
	}
	return nil
}

// AddActivityCommand logs a new activity.
func AddActivityCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("add-activity")
	kind := fs.String("type", "", "call, email, meeting, note or task (required)")
	subject := fs.String("subject", "", "Subject (required)")
	description := fs.String("description", "", "Longer description")
	due := fs.String("due", "", "Due date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	contact := fs.String("contact", "", "Related contact ID")
	company := fs.String("company", "", "Related company ID")
	deal := fs.String("deal", "", "Related deal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := client.Activities.Create(ctx, api.ActivityInput{
		Type:        models.ActivityType(*kind),
		Subject:     *subject,
		Description: *description,
		DueDate:     *due,
		ContactID:   *contact,
		CompanyID:   *company,
		DealID:      *deal,
	})
	if err != nil {
		return describe(err)
	}
	printf("✓ Activity created: %s (ID: %s)\n", a.Subject, a.ID)
	if a.DueDate != nil {
		printf("  Due: %s\n", fmtDateTime(a.DueDate))
	}
	return nil
}

func UpdateActivityCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("update-activity")
	var kind, subject, description, due, contact, company, deal stringFlag
	fs.Var(&kind, "type", "Activity type")
	fs.Var(&subject, "subject", "Subject")
	fs.Var(&description, "description", "Description")
	fs.Var(&due, "due", "Due date (empty to clear)")
	fs.Var(&contact, "contact", "Contact ID")
	fs.Var(&company, "company", "Company ID")
	fs.Var(&deal, "deal", "Deal ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "activity ID")
	if err != nil {
		return err
	}

	u := api.ActivityUpdate{
		Subject:     subject.ptr(),
		Description: description.ptr(),
		DueDate:     due.ptr(),
		ContactID:   contact.ptr(),
		CompanyID:   company.ptr(),
		DealID:      deal.ptr(),
	}
	if kind.set {
		t := models.ActivityType(kind.value)
		u.Type = &t
	}

	a, err := client.Activities.Update(ctx, id, u)
	if err != nil {
		return describe(err)
	}
	printf("✓ Activity updated: %s\n", a.Subject)
	return nil
}

// CompleteActivityCommand marks an activity done, or pending again with --undo.
func CompleteActivityCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("complete-activity")
	undo := fs.Bool("undo", false, "Mark the activity pending again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "activity ID")
	if err != nil {
		return err
	}

	a, err := client.Activities.SetCompleted(ctx, id, !*undo)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if a.Completed {
		printf("✓ Completed: %s\n", a.Subject)
	} else {
		printf("✓ Reopened: %s\n", a.Subject)
	}
	return nil
}

func DeleteActivityCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("delete-activity")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "activity ID")
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Delete activity %s?", id), *yes) {
		printf("Cancelled\n")
		return nil
	}
	if err := client.Activities.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	printf("✓ Activity deleted\n")
	return nil
}
