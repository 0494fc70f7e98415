// ABOUTME: Company CLI commands
// ABOUTME: Human-friendly commands for managing companies
package cli

import (
	"context"
	"fmt"

	"github.com/Duckiduc/omw-crm-sub001/api"
)

// ListCompaniesCommand lists one page of companies.
func ListCompaniesCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("list-companies")
	query := fs.String("query", "", "Search by name")
	industry := fs.String("industry", "", "Filter by industry")
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 20, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := client.Companies.List(ctx, api.CompanyFilter{
		ListParams: api.ListParams{Page: *page, Limit: *limit, Search: *query},
		Industry:   *industry,
	})
	if err != nil {
		return fmt.Errorf("failed to list companies: %w", err)
	}
	if len(result.Items) == 0 {
		printf("No companies found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "NAME\tINDUSTRY\tWEBSITE\tCONTACTS\tDEALS\tID")
	_, _ = fmt.Fprintln(w, "----\t--------\t-------\t--------\t-----\t--")
	for _, c := range result.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			c.Name, dash(c.Industry), dash(c.Website), c.ContactCount, c.DealCount, c.ID)
	}
	_ = w.Flush()

	printFooter(result.Pagination)
	return nil
}

func GetCompanyCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("get-company")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "company ID")
	if err != nil {
		return err
	}

	c, err := client.Companies.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get company: %w", err)
	}
	printf("%s (ID: %s)\n", c.Name, c.ID)
	if c.Industry != "" {
		printf("  Industry: %s\n", c.Industry)
	}
	if c.Website != "" {
		printf("  Website:  %s\n", c.Website)
	}
	if c.Phone != "" {
		printf("  Phone:    %s\n", c.Phone)
	}
	if c.Address != "" {
		printf("  Address:  %s\n", c.Address)
	}
	printf("  Contacts: %d\n", c.ContactCount)
	printf("  Deals:    %d\n", c.DealCount)
	if c.Notes != "" {
		printf("  Notes:    %s\n", c.Notes)
	}
	return nil
}

// AddCompanyCommand adds a new company.
func AddCompanyCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("add-company")
	name := fs.String("name", "", "Company name (required)")
	industry := fs.String("industry", "", "Industry")
	website := fs.String("website", "", "Website (http:// or https://)")
	phone := fs.String("phone", "", "Phone number")
	address := fs.String("address", "", "Postal address")
	notes := fs.String("notes", "", "Notes about the company")
	if err := fs.Parse(args); err != nil {
		return err
	}

	company, err := client.Companies.Create(ctx, api.CompanyInput{
		Name:     *name,
		Industry: *industry,
		Website:  *website,
		Phone:    *phone,
		Address:  *address,
		Notes:    *notes,
	})
	if err != nil {
		return describe(err)
	}
	printf("✓ Company created: %s (ID: %s)\n", company.Name, company.ID)
	return nil
}

func UpdateCompanyCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("update-company")
	var name, industry, website, phone, address, notes stringFlag
	fs.Var(&name, "name", "Company name")
	fs.Var(&industry, "industry", "Industry")
	fs.Var(&website, "website", "Website")
	fs.Var(&phone, "phone", "Phone number")
	fs.Var(&address, "address", "Postal address")
	fs.Var(&notes, "notes", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "company ID")
	if err != nil {
		return err
	}

	company, err := client.Companies.Update(ctx, id, api.CompanyUpdate{
		Name:     name.ptr(),
		Industry: industry.ptr(),
		Website:  website.ptr(),
		Phone:    phone.ptr(),
		Address:  address.ptr(),
		Notes:    notes.ptr(),
	})
	if err != nil {
		return describe(err)
	}
	printf("✓ Company updated: %s (ID: %s)\n", company.Name, company.ID)
	return nil
}

// DeleteCompanyCommand deletes a company. The backend refuses while contacts remain.
func DeleteCompanyCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("delete-company")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "company ID")
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Delete company %s?", id), *yes) {
		printf("Cancelled\n")
		return nil
	}
	if err := client.Companies.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	printf("✓ Company deleted\n")
	return nil
}
