// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Handles deletion of every entity and revocation of shares with a confirmation dialog
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

// deleteTarget names the entity awaiting confirmation.
func (m Model) deleteTarget() (kind, name string) {
	id := m.selectedID
	switch m.current() {
	case EntityContacts:
		if c := findByID(m.contacts, id, func(c models.Contact) string { return c.ID }); c != nil {
			name = c.Name
		} else if c, ok := m.detail.(*models.Contact); ok {
			name = c.Name
		}
		return "contact", name
	case EntityCompanies:
		if c := findByID(m.companies, id, func(c models.Company) string { return c.ID }); c != nil {
			name = c.Name
		} else if c, ok := m.detail.(*models.Company); ok {
			name = c.Name
		}
		return "company", name
	case EntityDeals:
		if d := findByID(m.deals, id, func(d models.Deal) string { return d.ID }); d != nil {
			name = d.Title
		} else if d, ok := m.detail.(*models.Deal); ok {
			name = d.Title
		}
		return "deal", name
	case EntityActivities:
		if a := findByID(m.activities, id, func(a models.Activity) string { return a.ID }); a != nil {
			name = a.Subject
		} else if a, ok := m.detail.(*models.Activity); ok {
			name = a.Subject
		}
		return "activity", name
	case EntityShares:
		if sh := findByID(m.shares, id, func(s models.Share) string { return s.ID }); sh != nil {
			name = fmt.Sprintf("%s %s with %s", sh.ResourceType, sh.ResourceName, sh.SharedWithName)
		}
		return "share", name
	case EntityUsers:
		if u := findByID(m.users, id, func(u models.User) string { return u.ID }); u != nil {
			name = u.Email
		} else if u, ok := m.detail.(*models.User); ok {
			name = u.Email
		}
		return "user", name
	}
	return "", ""
}

func (m Model) renderConfirmDeleteView() string {
	kind, name := m.deleteTarget()

	verb := "delete"
	if kind == "share" {
		verb = "revoke"
	}
	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to %s this %s?", verb, kind)
	entityInfo := fmt.Sprintf("\n%s: %s\n", strings.ToUpper(kind), name)
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)
	if m.err != nil {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", errorStyle.Render(m.err.Error()))
	}

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		confirmBoxStyle.Render(content),
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m, m.performDelete()
	case "n", "N", "esc":
		if m.detail != nil {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
	}
	return m, nil
}

func (m *Model) performDelete() tea.Cmd {
	client, id, tab := m.client, m.selectedID, m.current()
	kind, name := m.deleteTarget()

	return m.mutate(func(ctx context.Context) (func(*Model), error) {
		var err error
		switch tab {
		case EntityContacts:
			err = client.Contacts.Delete(ctx, id)
		case EntityCompanies:
			err = client.Companies.Delete(ctx, id)
			if api.IsConflict(err) {
				err = errors.New("company still has contacts; move or delete them first")
			}
		case EntityDeals:
			err = client.Deals.Delete(ctx, id)
		case EntityActivities:
			err = client.Activities.Delete(ctx, id)
		case EntityShares:
			err = client.Shares.Delete(ctx, id)
		case EntityUsers:
			err = client.Users.Delete(ctx, id)
		}
		if err != nil {
			return nil, err
		}
		return func(m *Model) {
			m.viewMode = ViewList
			m.detail = nil
			m.selectedID = ""
			m.message = fmt.Sprintf("Deleted %s %s", kind, name)
		}, nil
	})
}
