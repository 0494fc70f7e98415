// ABOUTME: Note CLI commands for contact and activity notes
// ABOUTME: Exactly one of --contact or --activity selects the parent
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/Duckiduc/omw-crm-sub001/api"
)

// noteTarget picks the note service from --contact and --activity.
func noteTarget(client *api.Client, contact, activity string) (*api.NoteService, string, error) {
	switch {
	case contact != "" && activity != "":
		return nil, "", fmt.Errorf("use either --contact or --activity, not both")
	case contact != "":
		return client.ContactNotes, contact, nil
	case activity != "":
		return client.ActivityNotes, activity, nil
	}
	return nil, "", fmt.Errorf("--contact or --activity is required")
}

func ListNotesCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("list-notes")
	contact := fs.String("contact", "", "Contact ID")
	activity := fs.String("activity", "", "Activity ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc, parent, err := noteTarget(client, *contact, *activity)
	if err != nil {
		return err
	}

	notes, err := svc.List(ctx, parent)
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}
	if len(notes) == 0 {
		printf("No notes found\n")
		return nil
	}
	for _, n := range notes {
		printf("%s  %s  %s\n", n.ID, fmtDate(&n.CreatedAt), dash(n.AuthorName))
		for _, line := range strings.Split(n.Content, "\n") {
			printf("    %s\n", line)
		}
	}
	return nil
}

func AddNoteCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("add-note")
	contact := fs.String("contact", "", "Contact ID")
	activity := fs.String("activity", "", "Activity ID")
	content := fs.String("content", "", "Note text (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	svc, parent, err := noteTarget(client, *contact, *activity)
	if err != nil {
		return err
	}

	note, err := svc.Create(ctx, parent, *content)
	if err != nil {
		return describe(err)
	}
	printf("✓ Note added (ID: %s)\n", note.ID)
	return nil
}

// UpdateNoteCommand edits a note. Only its author may do so.
func UpdateNoteCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("update-note")
	activity := fs.Bool("activity", false, "The note belongs to an activity")
	content := fs.String("content", "", "Replacement text (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "note ID")
	if err != nil {
		return err
	}

	svc := client.ContactNotes
	if *activity {
		svc = client.ActivityNotes
	}
	if _, err := svc.Update(ctx, id, *content); err != nil {
		return describe(err)
	}
	printf("✓ Note updated\n")
	return nil
}

func DeleteNoteCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("delete-note")
	activity := fs.Bool("activity", false, "The note belongs to an activity")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "note ID")
	if err != nil {
		return err
	}

	svc := client.ContactNotes
	if *activity {
		svc = client.ActivityNotes
	}
	if !confirm(fmt.Sprintf("Delete note %s?", id), *yes) {
		printf("Cancelled\n")
		return nil
	}
	if err := svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	printf("✓ Note deleted\n")
	return nil
}
