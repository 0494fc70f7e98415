// ABOUTME: Export CLI command writing CRM data to an XLSX workbook
// ABOUTME: Pages through every requested resource concurrently before writing
package cli

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/export"
)

var exportKinds = []string{"contacts", "companies", "deals", "activities"}

// ExportCommand writes one sheet per requested resource.
func ExportCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("export")
	output := fs.String("output", "crm-export.xlsx", "Output .xlsx file")
	only := fs.String("only", strings.Join(exportKinds, ","), "Comma separated resources to export")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kinds, err := parseKinds(*only)
	if err != nil {
		return err
	}

	sheets := make([]export.Sheet, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			s, err := fetchSheet(gctx, client, kind)
			if err != nil {
				return fmt.Errorf("failed to export %s: %w", kind, err)
			}
			sheets[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := export.WriteFile(*output, sheets...); err != nil {
		return err
	}
	for _, s := range sheets {
		printf("  %s: %d row(s)\n", s.Name, len(s.Rows))
	}
	printf("✓ Exported to %s\n", *output)
	return nil
}

func parseKinds(s string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, k := range strings.Split(s, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		valid := false
		for _, v := range exportKinds {
			valid = valid || v == k
		}
		if !valid {
			return nil, fmt.Errorf("unknown resource: %s (valid: %s)", k, strings.Join(exportKinds, ", "))
		}
		seen[k] = true
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	return out, nil
}

func fetchSheet(ctx context.Context, client *api.Client, kind string) (export.Sheet, error) {
	switch kind {
	case "contacts":
		items, err := client.Contacts.All(ctx, api.ContactFilter{})
		return export.ContactsSheet(items), err
	case "companies":
		items, err := client.Companies.All(ctx, api.CompanyFilter{})
		return export.CompaniesSheet(items), err
	case "deals":
		items, err := client.Deals.All(ctx, api.DealFilter{})
		return export.DealsSheet(items), err
	default:
		items, err := client.Activities.All(ctx, api.ActivityFilter{})
		return export.ActivitiesSheet(items), err
	}
}
