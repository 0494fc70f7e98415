// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Every backend call runs as a cancellable command and stale replies are dropped by sequence number
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
	"github.com/Duckiduc/omw-crm-sub001/validate"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
	ViewShare
)

// EntityType represents the type of entity being viewed
type EntityType int

const (
	EntityContacts EntityType = iota
	EntityCompanies
	EntityDeals
	EntityActivities
	EntityShares
	EntityUsers
)

func (e EntityType) String() string {
	switch e {
	case EntityContacts:
		return "Contacts"
	case EntityCompanies:
		return "Companies"
	case EntityDeals:
		return "Deals"
	case EntityActivities:
		return "Activities"
	case EntityShares:
		return "Shares"
	case EntityUsers:
		return "Users"
	}
	return ""
}

const pageSize = 20

// Model is the main bubbletea model
type Model struct {
	client *api.Client
	ctx    context.Context

	viewMode ViewMode
	tabs     []EntityType
	tab      int

	// List view state
	limit       int
	selectedRow int
	page        int
	pagination  models.Pagination
	search      string
	searching   bool
	searchInput textinput.Model
	filter      int
	shareType   int

	contacts   []models.Contact
	companies  []models.Company
	deals      []models.Deal
	activities []models.Activity
	shares     []models.Share
	users      []models.User

	// Lookups loaded once at startup
	stages     []models.DealStage
	shareUsers []models.User
	knownTags  []string

	// Detail view state
	selectedID string
	detail     any
	notes      []models.Note
	related    []models.Contact

	// Edit and share form state
	form *form

	// Graph view state
	graphDOT string

	// In-flight request tracking
	seq     int
	cancel  context.CancelFunc
	loading bool

	// UI state
	width   int
	height  int
	err     error
	message string
}

// loadedMsg carries the result of a backend call started by run.
type loadedMsg struct {
	seq    int
	apply  func(*Model)
	err    error
	reload bool
}

type lookupsMsg struct {
	stages []models.DealStage
	users  []models.User
	tags   []string
	err    error
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, client *api.Client) Model {
	tabs := []EntityType{EntityContacts, EntityCompanies, EntityDeals, EntityActivities, EntityShares}
	if client.Session().IsAdmin() {
		tabs = append(tabs, EntityUsers)
	}

	search := textinput.New()
	search.Placeholder = "search"
	search.CharLimit = 100

	return Model{
		client:      client,
		ctx:         ctx,
		viewMode:    ViewList,
		tabs:        tabs,
		page:        1,
		limit:       pageSize,
		searchInput: search,
		width:       100,
		height:      30,
	}
}

// Run starts the full-screen program and blocks until it exits. A limit of
// zero keeps the default page size.
func Run(ctx context.Context, client *api.Client, limit int) error {
	if !client.Session().LoggedIn() {
		return fmt.Errorf("%w; run 'omw-crm auth login' first", api.ErrNotLoggedIn)
	}
	m := NewModel(ctx, client)
	if limit > 0 {
		m.limit = limit
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadLookups(), m.reloadList())
}

// current returns the active tab.
func (m Model) current() EntityType {
	return m.tabs[m.tab]
}

// run cancels any in-flight request and starts fn under a new sequence number.
func (m *Model) run(fn func(ctx context.Context) (func(*Model), error)) tea.Cmd {
	return m.start(fn, false)
}

// mutate is run for writes; the list is refetched once the write lands.
func (m *Model) mutate(fn func(ctx context.Context) (func(*Model), error)) tea.Cmd {
	return m.start(fn, true)
}

func (m *Model) start(fn func(ctx context.Context) (func(*Model), error), reload bool) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.seq++
	m.loading = true
	m.err = nil
	seq := m.seq

	return func() tea.Msg {
		apply, err := fn(ctx)
		return loadedMsg{seq: seq, apply: apply, err: err, reload: reload}
	}
}

// abort cancels the in-flight request and ignores its reply.
func (m *Model) abort() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.seq++
	m.loading = false
}

// loadLookups fetches stages, shareable users and known tags in parallel.
func (m Model) loadLookups() tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		var msg lookupsMsg
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			msg.stages, err = client.Deals.Stages(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			msg.users, err = client.Shares.ShareableUsers(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			msg.tags, err = client.Contacts.Tags(gctx)
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case lookupsMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to load lookups: %w", msg.err)
			return m, nil
		}
		m.stages = msg.stages
		m.shareUsers = msg.users
		m.knownTags = msg.tags
		return m, nil
	case loadedMsg:
		return m.handleLoaded(msg)
	}
	return m, nil
}

func (m Model) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.seq {
		return m, nil
	}
	m.loading = false
	m.cancel = nil
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if m.form != nil && (m.viewMode == ViewEdit || m.viewMode == ViewShare) {
			if fields := fieldErrors(msg.err); fields != nil {
				m.form.errs = fields
				return m, nil
			}
		}
		m.err = msg.err
		return m, nil
	}
	if msg.apply != nil {
		msg.apply(&m)
	}
	if msg.reload && m.viewMode == ViewList {
		return m, m.reloadList()
	}
	return m, nil
}

// fieldErrors extracts per-field messages from a validation or backend error.
func fieldErrors(err error) validate.Errors {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		return validate.Errors(apiErr.Fields)
	}
	return nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	case ViewShare:
		return m.renderShareView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.abort()
		return m, tea.Quit
	}

	// Text entry views own every other key
	switch m.viewMode {
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewShare:
		return m.handleShareKeys(msg)
	}
	if m.viewMode == ViewList && m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q":
		m.abort()
		return m, tea.Quit
	case "r":
		if m.err != nil {
			return m, m.retry()
		}
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}
	return m, nil
}

// retry repeats the load behind the current view.
func (m *Model) retry() tea.Cmd {
	m.err = nil
	switch m.viewMode {
	case ViewDetail:
		return m.loadDetail()
	case ViewConfirmDelete:
		return m.performDelete()
	case ViewGraph:
		return m.loadGraph()
	}
	if m.stages == nil {
		return tea.Batch(m.loadLookups(), m.reloadList())
	}
	return m.reloadList()
}

func (m Model) renderError() string {
	if m.err == nil {
		return ""
	}
	return errorStyle.Render(fmt.Sprintf("Error: %v (press r to retry)", m.err)) + "\n\n"
}

func (m Model) renderStatus() string {
	switch {
	case m.loading:
		return statusStyle.Render("Loading...") + "\n\n"
	case m.message != "":
		return statusStyle.Render(m.message) + "\n\n"
	}
	return ""
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)
