// ABOUTME: Graph view showing Graphviz DOT for the pipeline or a company
// ABOUTME: Graphs are built by the viz package from live backend data
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Duckiduc/omw-crm-sub001/viz"
)

func (m *Model) loadGraph() tea.Cmd {
	m.graphDOT = ""
	generator := viz.NewGraphGenerator(m.client)
	companyID := ""
	if m.current() == EntityCompanies {
		companyID = m.selectedID
	}

	return m.run(func(ctx context.Context) (func(*Model), error) {
		var dot string
		var err error
		if companyID != "" {
			dot, err = generator.GenerateCompanyGraph(ctx, companyID)
		} else {
			dot, err = generator.GeneratePipelineGraph(ctx)
		}
		if err != nil {
			return nil, err
		}
		return func(m *Model) { m.graphDOT = dot }, nil
	})
}

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")
	s.WriteString(m.renderError())

	if m.graphDOT == "" {
		if m.err == nil {
			s.WriteString("Generating graph...\n")
		}
	} else {
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.graphDOT))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(strings.Join([]string{"Esc: Back", "q: Quit"}, " • ")))

	return s.String()
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.abort()
		m.graphDOT = ""
		m.err = nil
		if m.detail != nil {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
	}
	return m, nil
}
