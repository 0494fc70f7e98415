// ABOUTME: GraphViz generation for the deal pipeline and company relationship views
// ABOUTME: Fetches through the api client and renders DOT source with go-graphviz
package viz

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"golang.org/x/sync/errgroup"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

type GraphGenerator struct {
	client *api.Client
}

func NewGraphGenerator(client *api.Client) *GraphGenerator {
	return &GraphGenerator{client: client}
}

// GeneratePipelineGraph renders every visible deal grouped under its stage.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context) (string, error) {
	var stages []models.DealStage
	var deals []models.Deal

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		stages, err = g.client.Deals.Stages(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		deals, err = g.client.Deals.All(egCtx, api.DealFilter{})
		return err
	})
	if err := eg.Wait(); err != nil {
		return "", fmt.Errorf("failed to fetch pipeline: %w", err)
	}
	return BuildPipelineGraph(ctx, stages, deals)
}

// GenerateCompanyGraph renders a company with its contacts and deals.
func (g *GraphGenerator) GenerateCompanyGraph(ctx context.Context, companyID string) (string, error) {
	var company *models.Company
	var contacts []models.Contact
	var deals []models.Deal

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		company, err = g.client.Companies.Get(egCtx, companyID)
		return err
	})
	eg.Go(func() error {
		var err error
		contacts, err = g.client.Contacts.All(egCtx, api.ContactFilter{CompanyID: companyID})
		return err
	})
	eg.Go(func() error {
		var err error
		deals, err = g.client.Deals.All(egCtx, api.DealFilter{CompanyID: companyID})
		return err
	})
	if err := eg.Wait(); err != nil {
		return "", fmt.Errorf("failed to fetch company: %w", err)
	}
	return BuildCompanyGraph(ctx, *company, contacts, deals)
}

// BuildPipelineGraph lays stages out left to right in order and hangs each
// deal off its stage. Deals whose stage is unknown are dropped.
func BuildPipelineGraph(ctx context.Context, stages []models.DealStage, deals []models.Deal) (string, error) {
	ordered := append([]models.DealStage(nil), stages...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	return render(ctx, "Deal Pipeline", func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)

		stageNodes := make(map[string]*cgraph.Node, len(ordered))
		var prev *cgraph.Node
		for _, stage := range ordered {
			total := 0.0
			count := 0
			for _, d := range deals {
				if d.StageID == stage.ID {
					total += d.Value
					count++
				}
			}

			node, err := graph.CreateNodeByName("stage_" + stage.ID)
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%d deal(s)\n%s", stage.Name, count, formatMoney(total)))
			node.SetShape("box")
			node.SetStyle("filled")
			node.SetFillColor("lightblue")
			stageNodes[stage.ID] = node

			if prev != nil {
				edge, err := graph.CreateEdgeByName("next_"+stage.ID, prev, node)
				if err != nil {
					return fmt.Errorf("failed to create stage edge: %w", err)
				}
				edge.SetStyle("bold")
			}
			prev = node
		}

		for _, d := range deals {
			stageNode, ok := stageNodes[d.StageID]
			if !ok {
				continue
			}
			node, err := graph.CreateNodeByName("deal_" + d.ID)
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			label := fmt.Sprintf("%s\n%s %s (%d%%)", d.Title, formatMoney(d.Value), d.Currency, d.Probability)
			if d.CompanyName != "" {
				label += "\n" + d.CompanyName
			}
			node.SetLabel(label)
			node.SetShape("note")
			if _, err := graph.CreateEdgeByName("in_"+d.ID, stageNode, node); err != nil {
				return fmt.Errorf("failed to create deal edge: %w", err)
			}
		}
		return nil
	})
}

// BuildCompanyGraph draws company → contacts and company → deals, linking a
// deal to its contact when both are present.
func BuildCompanyGraph(ctx context.Context, company models.Company, contacts []models.Contact, deals []models.Deal) (string, error) {
	return render(ctx, company.Name, func(graph *cgraph.Graph) error {
		root, err := graph.CreateNodeByName("company_" + company.ID)
		if err != nil {
			return fmt.Errorf("failed to create company node: %w", err)
		}
		label := company.Name
		if company.Industry != "" {
			label += "\n" + company.Industry
		}
		root.SetLabel(label)
		root.SetShape("box")
		root.SetStyle("filled")
		root.SetFillColor("lightblue")

		contactNodes := make(map[string]*cgraph.Node, len(contacts))
		for _, c := range contacts {
			node, err := graph.CreateNodeByName("contact_" + c.ID)
			if err != nil {
				return fmt.Errorf("failed to create contact node: %w", err)
			}
			label := c.Name
			if c.Position != "" {
				label += "\n" + c.Position
			}
			node.SetLabel(label)
			node.SetShape("ellipse")
			node.SetStyle("filled")
			node.SetFillColor(statusColor(c.Status))
			contactNodes[c.ID] = node

			edge, err := graph.CreateEdgeByName("works_at_"+c.ID, node, root)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("works at")
			edge.SetStyle("dashed")
		}

		for _, d := range deals {
			node, err := graph.CreateNodeByName("deal_" + d.ID)
			if err != nil {
				return fmt.Errorf("failed to create deal node: %w", err)
			}
			node.SetLabel(fmt.Sprintf("%s\n%s\n(%s)", d.Title, formatMoney(d.Value), d.StageName))
			node.SetShape("diamond")
			node.SetStyle("filled")
			node.SetFillColor("lightyellow")

			edge, err := graph.CreateEdgeByName("deal_"+d.ID, root, node)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel("deal")

			if contactNode, ok := contactNodes[d.ContactID]; ok {
				edge, err := graph.CreateEdgeByName("contact_for_"+d.ID, contactNode, node)
				if err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
				edge.SetStyle("dotted")
			}
		}
		return nil
	})
}

func render(ctx context.Context, title string, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel(title)
	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func statusColor(s models.ContactStatus) string {
	switch s {
	case models.StatusHot:
		return "salmon"
	case models.StatusWarm:
		return "khaki"
	case models.StatusCold:
		return "lightsteelblue"
	default:
		return "lightgreen"
	}
}

// formatMoney renders whole amounts with a K or M suffix once they get large.
func formatMoney(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
