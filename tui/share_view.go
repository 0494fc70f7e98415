// ABOUTME: Share form for contacts, deals and activities
// ABOUTME: The recipient can be typed as an email address or a user ID
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

var shareForm = validate.Schema{
	Name: "share",
	Fields: []validate.Field{
		{Name: "sharedWithUserId", Label: "User", Placeholder: "email or user id", Rules: "required"},
		{Name: "permission", Label: "Permission", Placeholder: "view/edit", Rules: "required,oneof=view edit"},
		{Name: "message", Label: "Message", Rules: "omitempty,max=500"},
	},
}

func resourceType(e EntityType) models.ResourceType {
	switch e {
	case EntityContacts:
		return models.ResourceContact
	case EntityDeals:
		return models.ResourceDeal
	case EntityActivities:
		return models.ResourceActivity
	}
	return ""
}

func (m *Model) startShare() {
	m.form = newForm("Share "+singular(m.current()), shareForm, map[string]string{"permission": string(models.PermissionView)})
	m.form.id = m.selectedID
	m.form.returnTo = m.viewMode
	m.err = nil
	m.viewMode = ViewShare
}

// findUser matches ref against user IDs and, ignoring case, emails.
func findUser(users []models.User, ref string) (models.User, bool) {
	for _, u := range users {
		if u.ID == ref || strings.EqualFold(u.Email, ref) {
			return u, true
		}
	}
	return models.User{}, false
}

func (m Model) handleShareKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.viewMode = f.returnTo
		m.form = nil
		m.err = nil
		return m, nil
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "enter":
		return m, m.submitShare()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

func (m *Model) submitShare() tea.Cmd {
	f := m.form
	v := f.values()
	f.errs = shareForm.Validate(v)
	if f.errs != nil {
		return nil
	}
	user, ok := findUser(m.shareUsers, v["sharedWithUserId"])
	if !ok {
		f.errs = validate.Errors{"sharedWithUserId": "User not found"}
		return nil
	}

	client := m.client
	in := api.ShareInput{
		ResourceType:     resourceType(m.current()),
		ResourceID:       f.id,
		SharedWithUserID: user.ID,
		Permission:       models.Permission(v["permission"]),
		Message:          v["message"],
	}
	return m.run(func(ctx context.Context) (func(*Model), error) {
		if _, err := client.Shares.Create(ctx, in); err != nil {
			return nil, err
		}
		return func(m *Model) {
			m.viewMode = f.returnTo
			m.form = nil
			m.message = fmt.Sprintf("Shared with %s (%s)", user.Name, in.Permission)
		}, nil
	})
}

func (m Model) renderShareView() string {
	var s strings.Builder
	f := m.form

	s.WriteString(titleStyle.Render(f.title))
	s.WriteString("\n\n")
	s.WriteString(m.renderError())
	s.WriteString(m.renderStatus())

	for i, field := range f.schema.Fields {
		s.WriteString(fieldLabelStyle.Render(field.Label+":") + "\n")
		s.WriteString(f.inputs[i].View() + "\n")
		if msg, ok := f.errs[field.Name]; ok {
			s.WriteString(errorStyle.Render("  "+msg) + "\n")
		}
		s.WriteString("\n")
	}

	if len(m.shareUsers) > 0 {
		emails := make([]string, 0, len(m.shareUsers))
		for _, u := range m.shareUsers {
			emails = append(emails, u.Email)
		}
		s.WriteString(helpStyle.Render("users: "+strings.Join(emails, ", ")) + "\n")
	}
	s.WriteString(helpStyle.Render("tab: next field • enter: share • esc: cancel"))
	return s.String()
}
