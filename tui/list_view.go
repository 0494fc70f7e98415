// ABOUTME: List view rendering and key handling for every tab
// ABOUTME: Pages, search and filters are applied by the backend through the api client
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

var activityFilters = []string{"all", "pending", "completed", "overdue"}

// filterOptions lists the values the f key cycles through on the current tab.
func (m Model) filterOptions() []string {
	switch m.current() {
	case EntityContacts:
		opts := []string{"all"}
		for _, s := range models.ContactStatuses() {
			opts = append(opts, string(s))
		}
		return opts
	case EntityDeals:
		opts := []string{"all"}
		for _, s := range m.stages {
			opts = append(opts, s.Name)
		}
		return opts
	case EntityActivities:
		return activityFilters
	case EntityShares:
		return []string{string(models.ShareAll), string(models.ShareByMe), string(models.ShareWithMe)}
	case EntityUsers:
		return []string{"all", string(models.RoleUser), string(models.RoleAdmin)}
	}
	return nil
}

// shareTypeValue is the resource type picked with t on the shares tab.
func (m Model) shareTypeValue() models.ResourceType {
	types := models.ResourceTypes()
	if m.shareType <= 0 || m.shareType > len(types) {
		return ""
	}
	return types[m.shareType-1]
}

func (m Model) filterValue() string {
	opts := m.filterOptions()
	if m.filter <= 0 || m.filter >= len(opts) {
		return ""
	}
	return opts[m.filter]
}

// reloadList fetches the current page of the active tab.
func (m *Model) reloadList() tea.Cmd {
	client := m.client
	params := api.ListParams{Page: m.page, Limit: m.limit, Search: m.search}
	filter := m.filterValue()

	switch m.current() {
	case EntityContacts:
		f := api.ContactFilter{ListParams: params, Status: models.ContactStatus(filter)}
		return m.run(func(ctx context.Context) (func(*Model), error) {
			p, err := client.Contacts.List(ctx, f)
			if err != nil {
				return nil, err
			}
			return func(m *Model) {
				m.contacts = p.Items
				m.setPage(p.Pagination, len(p.Items))
			}, nil
		})
	case EntityCompanies:
		f := api.CompanyFilter{ListParams: params}
		return m.run(func(ctx context.Context) (func(*Model), error) {
			p, err := client.Companies.List(ctx, f)
			if err != nil {
				return nil, err
			}
			return func(m *Model) {
				m.companies = p.Items
				m.setPage(p.Pagination, len(p.Items))
			}, nil
		})
	case EntityDeals:
		f := api.DealFilter{ListParams: params}
		if stage, ok := models.FindStage(m.stages, filter); ok && filter != "" {
			f.StageID = stage.ID
		}
		return m.run(func(ctx context.Context) (func(*Model), error) {
			p, err := client.Deals.List(ctx, f)
			if err != nil {
				return nil, err
			}
			return func(m *Model) {
				m.deals = p.Items
				m.setPage(p.Pagination, len(p.Items))
			}, nil
		})
	case EntityActivities:
		f := api.ActivityFilter{ListParams: params}
		switch filter {
		case "pending":
			f.Completed = api.Bool(false)
		case "completed":
			f.Completed = api.Bool(true)
		case "overdue":
			f.Overdue = true
		}
		return m.run(func(ctx context.Context) (func(*Model), error) {
			p, err := client.Activities.List(ctx, f)
			if err != nil {
				return nil, err
			}
			return func(m *Model) {
				m.activities = p.Items
				m.setPage(p.Pagination, len(p.Items))
			}, nil
		})
	case EntityShares:
		f := api.ShareFilter{Direction: models.ShareDirection(filter), ResourceType: m.shareTypeValue()}
		return m.run(func(ctx context.Context) (func(*Model), error) {
			shares, err := client.Shares.List(ctx, f)
			if err != nil {
				return nil, err
			}
			return func(m *Model) {
				m.shares = shares
				m.setPage(models.NewPagination(1, len(shares), len(shares)), len(shares))
			}, nil
		})
	case EntityUsers:
		f := api.UserFilter{ListParams: params, Role: models.Role(filter)}
		return m.run(func(ctx context.Context) (func(*Model), error) {
			p, err := client.Users.List(ctx, f)
			if err != nil {
				return nil, err
			}
			return func(m *Model) {
				m.users = p.Items
				m.setPage(p.Pagination, len(p.Items))
			}, nil
		})
	}
	return nil
}

func (m *Model) setPage(p models.Pagination, rows int) {
	m.pagination = p
	if m.selectedRow >= rows {
		m.selectedRow = max(rows-1, 0)
	}
}

// rowCount is the number of rows loaded for the current tab.
func (m Model) rowCount() int {
	switch m.current() {
	case EntityContacts:
		return len(m.contacts)
	case EntityCompanies:
		return len(m.companies)
	case EntityDeals:
		return len(m.deals)
	case EntityActivities:
		return len(m.activities)
	case EntityShares:
		return len(m.shares)
	case EntityUsers:
		return len(m.users)
	}
	return 0
}

// selected returns the ID of the highlighted row.
func (m Model) selected() string {
	i := m.selectedRow
	if i < 0 || i >= m.rowCount() {
		return ""
	}
	switch m.current() {
	case EntityContacts:
		return m.contacts[i].ID
	case EntityCompanies:
		return m.companies[i].ID
	case EntityDeals:
		return m.deals[i].ID
	case EntityActivities:
		return m.activities[i].ID
	case EntityShares:
		return m.shares[i].ID
	case EntityUsers:
		return m.users[i].ID
	}
	return ""
}

// switchTab moves to another tab, dropping the old tab's paging state.
func (m *Model) switchTab(delta int) tea.Cmd {
	m.tab = (m.tab + delta + len(m.tabs)) % len(m.tabs)
	m.page = 1
	m.selectedRow = 0
	m.filter = 0
	m.shareType = 0
	m.search = ""
	m.searchInput.SetValue("")
	m.message = ""
	m.pagination = models.Pagination{}
	return m.reloadList()
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		cmd := m.switchTab(1)
		return m, cmd
	case "shift+tab":
		cmd := m.switchTab(-1)
		return m, cmd
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "right", "l", "]":
		if m.pagination.CanNext() {
			m.page++
			m.selectedRow = 0
			return m, m.reloadList()
		}
	case "left", "h", "[":
		if m.pagination.CanPrev() {
			m.page--
			m.selectedRow = 0
			return m, m.reloadList()
		}
	case "/":
		if m.current() != EntityShares {
			m.searching = true
			m.searchInput.SetValue(m.search)
			m.searchInput.Focus()
		}
	case "f":
		if opts := m.filterOptions(); len(opts) > 1 {
			m.filter = (m.filter + 1) % len(opts)
			m.page = 1
			m.selectedRow = 0
			return m, m.reloadList()
		}
	case "t":
		if m.current() == EntityShares {
			m.shareType = (m.shareType + 1) % (len(models.ResourceTypes()) + 1)
			m.selectedRow = 0
			return m, m.reloadList()
		}
	case "ctrl+r":
		m.message = ""
		return m, m.reloadList()
	case "enter":
		if id := m.selected(); id != "" && m.current() != EntityShares {
			m.selectedID = id
			m.viewMode = ViewDetail
			m.message = ""
			return m, m.loadDetail()
		}
	case "n":
		if m.current() != EntityShares {
			m.startCreate()
		}
	case "e":
		if id := m.selected(); id != "" && m.current() != EntityShares {
			m.selectedID = id
			m.startEdit()
		}
	case "d":
		if id := m.selected(); id != "" {
			m.selectedID = id
			m.detail = nil
			m.viewMode = ViewConfirmDelete
		}
	case "s":
		if id := m.selected(); id != "" && shareable(m.current()) {
			m.selectedID = id
			m.startShare()
		}
	case "x":
		if m.current() == EntityActivities && m.selectedRow < len(m.activities) {
			return m, m.toggleComplete(m.activities[m.selectedRow])
		}
	case "g":
		if m.current() == EntityDeals {
			m.viewMode = ViewGraph
			return m, m.loadGraph()
		}
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		m.search = strings.TrimSpace(m.searchInput.Value())
		m.page = 1
		m.selectedRow = 0
		return m, m.reloadList()
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// toggleComplete flips an activity's completion and reloads the list.
func (m *Model) toggleComplete(a models.Activity) tea.Cmd {
	client := m.client
	return m.mutate(func(ctx context.Context) (func(*Model), error) {
		updated, err := client.Activities.ToggleComplete(ctx, a)
		if err != nil {
			return nil, err
		}
		return func(m *Model) {
			if updated.Completed {
				m.message = fmt.Sprintf("Completed %q", updated.Subject)
			} else {
				m.message = fmt.Sprintf("Reopened %q", updated.Subject)
			}
			if m.viewMode == ViewDetail {
				m.detail = updated
			}
		}, nil
	})
}

func shareable(e EntityType) bool {
	return e == EntityContacts || e == EntityDeals || e == EntityActivities
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("omw-crm"))
	s.WriteString("\n")

	for i, tab := range m.tabs {
		if i == m.tab {
			s.WriteString(tabActiveStyle.Render(tab.String()))
		} else {
			s.WriteString(tabInactiveStyle.Render(tab.String()))
		}
		s.WriteString(" ")
	}
	s.WriteString("\n\n")

	if m.searching {
		s.WriteString("Search: " + m.searchInput.View() + "\n\n")
	} else {
		var scope []string
		if m.search != "" {
			scope = append(scope, fmt.Sprintf("search %q", m.search))
		}
		if f := m.filterValue(); f != "" {
			scope = append(scope, "filter "+f)
		}
		if t := m.shareTypeValue(); t != "" {
			scope = append(scope, "type "+string(t))
		}
		if len(scope) > 0 {
			s.WriteString(helpStyle.Render(strings.Join(scope, " • ")) + "\n\n")
		}
	}

	s.WriteString(m.renderError())
	s.WriteString(m.renderStatus())
	s.WriteString(m.renderTable())
	s.WriteString("\n")

	if m.current() != EntityShares && m.pagination.TotalPages > 0 {
		s.WriteString(fmt.Sprintf("%s (%d total)\n", m.pagination.Label(), m.pagination.Total))
	}

	help := []string{"tab: switch", "↑/↓: navigate", "enter: view", "n: new", "e: edit", "d: delete"}
	switch m.current() {
	case EntityActivities:
		help = append(help, "x: complete")
	case EntityDeals:
		help = append(help, "g: pipeline graph")
	case EntityShares:
		help = []string{"tab: switch", "↑/↓: navigate", "d: revoke", "t: type"}
	}
	if shareable(m.current()) {
		help = append(help, "s: share")
	}
	help = append(help, "←/→: page", "/: search", "f: filter", "q: quit")
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))

	return s.String()
}

func (m Model) renderTable() string {
	var columns []table.Column
	var rows []table.Row
	now := time.Now()

	switch m.current() {
	case EntityContacts:
		columns = []table.Column{
			{Title: "Name", Width: 22},
			{Title: "Email", Width: 26},
			{Title: "Company", Width: 18},
			{Title: "Status", Width: 8},
			{Title: "Tags", Width: 20},
		}
		for _, c := range m.contacts {
			rows = append(rows, table.Row{c.Name, c.Email, c.Company, string(c.Status), strings.Join(c.Tags, ", ")})
		}
	case EntityCompanies:
		columns = []table.Column{
			{Title: "Name", Width: 26},
			{Title: "Industry", Width: 18},
			{Title: "Website", Width: 26},
			{Title: "Contacts", Width: 9},
			{Title: "Deals", Width: 6},
		}
		for _, c := range m.companies {
			rows = append(rows, table.Row{c.Name, c.Industry, c.Website, fmt.Sprint(c.ContactCount), fmt.Sprint(c.DealCount)})
		}
	case EntityDeals:
		columns = []table.Column{
			{Title: "Title", Width: 26},
			{Title: "Stage", Width: 13},
			{Title: "Value", Width: 14},
			{Title: "Prob", Width: 5},
			{Title: "Company", Width: 18},
			{Title: "Close", Width: 10},
		}
		for _, d := range m.deals {
			rows = append(rows, table.Row{
				d.Title, d.StageName, fmt.Sprintf("%s %.0f", d.Currency, d.Value),
				fmt.Sprintf("%d%%", d.Probability), d.CompanyName, formatDate(d.ExpectedCloseDate),
			})
		}
	case EntityActivities:
		columns = []table.Column{
			{Title: "Type", Width: 8},
			{Title: "Subject", Width: 30},
			{Title: "Due", Width: 16},
			{Title: "Status", Width: 10},
		}
		for _, a := range m.activities {
			rows = append(rows, table.Row{string(a.Type), a.Subject, formatDateTime(a.DueDate), activityState(a, now)})
		}
	case EntityShares:
		columns = []table.Column{
			{Title: "Direction", Width: 9},
			{Title: "Type", Width: 9},
			{Title: "Resource", Width: 24},
			{Title: "With", Width: 24},
			{Title: "Permission", Width: 10},
		}
		for _, sh := range m.shares {
			with := sh.SharedWithName
			if sh.Direction == models.ShareWithMe {
				with = sh.OwnerName
			}
			rows = append(rows, table.Row{string(sh.Direction), string(sh.ResourceType), sh.ResourceName, with, string(sh.Permission)})
		}
	case EntityUsers:
		columns = []table.Column{
			{Title: "Name", Width: 22},
			{Title: "Email", Width: 30},
			{Title: "Role", Width: 8},
			{Title: "Created", Width: 10},
		}
		for _, u := range m.users {
			rows = append(rows, table.Row{u.Name, u.Email, string(u.Role), u.CreatedAt.Format("2006-01-02")})
		}
	}

	if len(rows) == 0 && !m.loading {
		return helpStyle.Render("No "+strings.ToLower(m.current().String())+" found.") + "\n"
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows)+1, max(m.height-12, 5))),
	)
	t.SetCursor(m.selectedRow)

	return t.View()
}

func activityState(a models.Activity, now time.Time) string {
	switch {
	case a.Completed:
		return "done"
	case a.IsOverdue(now):
		return "OVERDUE"
	}
	return "pending"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
