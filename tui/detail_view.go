// ABOUTME: Detail view rendering and key handling
// ABOUTME: Loads an entity together with its notes or contacts in parallel
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2)
)

// loadDetail fetches the selected entity of the current tab.
func (m *Model) loadDetail() tea.Cmd {
	client, id := m.client, m.selectedID

	switch m.current() {
	case EntityContacts:
		return m.run(func(ctx context.Context) (func(*Model), error) {
			var contact *models.Contact
			var notes []models.Note
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				contact, err = client.Contacts.Get(gctx, id)
				return err
			})
			g.Go(func() (err error) {
				notes, err = client.ContactNotes.List(gctx, id)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return func(m *Model) { m.detail, m.notes, m.related = contact, notes, nil }, nil
		})
	case EntityCompanies:
		return m.run(func(ctx context.Context) (func(*Model), error) {
			var company *models.Company
			var contacts []models.Contact
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				company, err = client.Companies.Get(gctx, id)
				return err
			})
			g.Go(func() (err error) {
				contacts, err = client.Contacts.All(gctx, api.ContactFilter{CompanyID: id})
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return func(m *Model) { m.detail, m.notes, m.related = company, nil, contacts }, nil
		})
	case EntityDeals:
		return m.run(func(ctx context.Context) (func(*Model), error) {
			deal, err := client.Deals.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return func(m *Model) { m.detail, m.notes, m.related = deal, nil, nil }, nil
		})
	case EntityActivities:
		return m.run(func(ctx context.Context) (func(*Model), error) {
			var activity *models.Activity
			var notes []models.Note
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				activity, err = client.Activities.Get(gctx, id)
				return err
			})
			g.Go(func() (err error) {
				notes, err = client.ActivityNotes.List(gctx, id)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return func(m *Model) { m.detail, m.notes, m.related = activity, notes, nil }, nil
		})
	case EntityUsers:
		return m.run(func(ctx context.Context) (func(*Model), error) {
			user, err := client.Users.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return func(m *Model) { m.detail, m.notes, m.related = user, nil, nil }, nil
		})
	}
	return nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.abort()
		m.viewMode = ViewList
		m.detail = nil
		m.err = nil
		return m, nil
	case "e":
		if m.detail != nil {
			m.startEdit()
		}
	case "d":
		m.viewMode = ViewConfirmDelete
	case "s":
		if shareable(m.current()) {
			m.startShare()
		}
	case "x":
		if a, ok := m.detail.(*models.Activity); ok {
			return m, m.toggleComplete(*a)
		}
	case "g":
		switch m.current() {
		case EntityCompanies, EntityDeals:
			m.viewMode = ViewGraph
			return m, m.loadGraph()
		}
	}
	return m, nil
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(m.renderError())
	s.WriteString(m.renderStatus())

	help := []string{"esc: back", "e: edit", "d: delete"}
	now := time.Now()

	switch d := m.detail.(type) {
	case *models.Contact:
		s.WriteString(titleStyle.Render(d.Name) + "\n\n")
		s.WriteString(renderField("Email", d.Email))
		s.WriteString(renderField("Phone", d.Phone))
		s.WriteString(renderField("Position", d.Position))
		s.WriteString(renderField("Company", d.Company))
		s.WriteString(renderField("Status", string(d.Status)))
		s.WriteString(renderField("Tags", strings.Join(d.Tags, ", ")))
		s.WriteString(renderField("Notes", d.Notes))
		s.WriteString(renderField("Updated", d.UpdatedAt.Local().Format("2006-01-02 15:04")))
		s.WriteString(renderNotes(m.notes))
		help = append(help, "s: share")
	case *models.Company:
		s.WriteString(titleStyle.Render(d.Name) + "\n\n")
		s.WriteString(renderField("Industry", d.Industry))
		s.WriteString(renderField("Website", d.Website))
		s.WriteString(renderField("Phone", d.Phone))
		s.WriteString(renderField("Address", d.Address))
		s.WriteString(renderField("Notes", d.Notes))
		s.WriteString(renderField("Deals", fmt.Sprint(d.DealCount)))
		s.WriteString("\n" + fieldLabelStyle.Render(fmt.Sprintf("Contacts (%d)", len(m.related))) + "\n")
		for _, c := range m.related {
			line := c.Name
			if c.Position != "" {
				line += " (" + c.Position + ")"
			}
			s.WriteString(noteStyle.Render("• "+line) + "\n")
		}
		help = append(help, "g: graph")
	case *models.Deal:
		s.WriteString(titleStyle.Render(d.Title) + "\n\n")
		s.WriteString(renderField("Stage", d.StageName))
		s.WriteString(renderField("Value", fmt.Sprintf("%s %.2f", d.Currency, d.Value)))
		s.WriteString(renderField("Probability", fmt.Sprintf("%d%%", d.Probability)))
		s.WriteString(renderField("Weighted", fmt.Sprintf("%s %.2f", d.Currency, d.WeightedValue())))
		s.WriteString(renderField("Contact", d.ContactName))
		s.WriteString(renderField("Company", d.CompanyName))
		s.WriteString(renderField("Expected close", formatDate(d.ExpectedCloseDate)))
		s.WriteString(renderField("Notes", d.Notes))
		help = append(help, "s: share", "g: pipeline graph")
	case *models.Activity:
		s.WriteString(titleStyle.Render(d.Subject) + "\n\n")
		s.WriteString(renderField("Type", string(d.Type)))
		s.WriteString(renderField("Due", formatDateTime(d.DueDate)))
		s.WriteString(renderField("Status", activityState(*d, now)))
		s.WriteString(renderField("Description", d.Description))
		s.WriteString(renderNotes(m.notes))
		help = append(help, "s: share", "x: toggle complete")
	case *models.User:
		s.WriteString(titleStyle.Render(d.Name) + "\n\n")
		s.WriteString(renderField("Email", d.Email))
		s.WriteString(renderField("Role", string(d.Role)))
		s.WriteString(renderField("Created", d.CreatedAt.Local().Format("2006-01-02")))
	default:
		if !m.loading && m.err == nil {
			s.WriteString("Not found\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func renderNotes(notes []models.Note) string {
	var s strings.Builder
	s.WriteString("\n" + fieldLabelStyle.Render(fmt.Sprintf("Notes (%d)", len(notes))) + "\n")
	for _, n := range notes {
		header := n.CreatedAt.Local().Format("2006-01-02 15:04")
		if n.AuthorName != "" {
			header += " " + n.AuthorName
		}
		s.WriteString(noteStyle.Render(header+": "+n.Content) + "\n")
	}
	return s.String()
}
