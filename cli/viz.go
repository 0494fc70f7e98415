// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/viz"
)

// VizGraphCompanyCommand generates a company graph of contacts and deals.
func VizGraphCompanyCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("viz graph company")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "company ID")
	if err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator(client).GenerateCompanyGraph(ctx, id)
	if err != nil {
		return err
	}
	return writeGraph(*output, dot)
}

// VizGraphPipelineCommand generates a deal pipeline graph.
func VizGraphPipelineCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("viz graph pipeline")
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator(client).GeneratePipelineGraph(ctx)
	if err != nil {
		return err
	}
	return writeGraph(*output, dot)
}

// VizDashboardCommand prints the text dashboard.
func VizDashboardCommand(ctx context.Context, client *api.Client, _ []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	stats, err := viz.GenerateDashboardStats(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}
	printf("%s", viz.RenderDashboard(stats, time.Now()))
	return nil
}

func writeGraph(output, dot string) error {
	if output != "" {
		if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write graph: %w", err)
		}
		printf("✓ Graph written to %s\n", output)
		return nil
	}
	printf("%s\n", dot)
	return nil
}
