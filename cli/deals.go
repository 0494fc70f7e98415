// ABOUTME: Deal CLI commands
// ABOUTME: Human-friendly commands for deals and the pipeline stages they move through
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

// resolveStage accepts a stage ID or name. Empty stays empty.
func resolveStage(ctx context.Context, client *api.Client, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	stages, err := client.Deals.Stages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load stages: %w", err)
	}
	s, ok := models.FindStage(stages, ref)
	if !ok {
		return "", fmt.Errorf("unknown stage: %s (see 'omw-crm crm stages')", ref)
	}
	return s.ID, nil
}

// StagesCommand lists pipeline stages in order.
func StagesCommand(ctx context.Context, client *api.Client, _ []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	stages, err := client.Deals.Stages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stages: %w", err)
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "#\tSTAGE\tID")
	_, _ = fmt.Fprintln(w, "-\t-----\t--")
	for _, s := range stages {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", s.OrderIndex, s.Name, s.ID)
	}
	return w.Flush()
}

// ListDealsCommand lists one page of deals.
func ListDealsCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("list-deals")
	query := fs.String("query", "", "Search by title")
	stage := fs.String("stage", "", "Filter by stage ID or name")
	contact := fs.String("contact", "", "Filter by contact ID")
	company := fs.String("company", "", "Filter by company ID")
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 20, "Page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stageID, err := resolveStage(ctx, client, *stage)
	if err != nil {
		return err
	}
	result, err := client.Deals.List(ctx, api.DealFilter{
		ListParams: api.ListParams{Page: *page, Limit: *limit, Search: *query},
		StageID:    stageID,
		ContactID:  *contact,
		CompanyID:  *company,
	})
	if err != nil {
		return fmt.Errorf("failed to list deals: %w", err)
	}
	if len(result.Items) == 0 {
		printf("No deals found\n")
		return nil
	}

	w := newTable()
	_, _ = fmt.Fprintln(w, "TITLE\tSTAGE\tVALUE\tPROB\tCOMPANY\tCLOSE\tID")
	_, _ = fmt.Fprintln(w, "-----\t-----\t-----\t----\t-------\t-----\t--")
	for _, d := range result.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s %.2f\t%d%%\t%s\t%s\t%s\n",
			d.Title, dash(d.StageName), d.Currency, d.Value, d.Probability,
			dash(d.CompanyName), fmtDate(d.ExpectedCloseDate), d.ID)
	}
	_ = w.Flush()

	printFooter(result.Pagination)
	return nil
}

func GetDealCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("get-deal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "deal ID")
	if err != nil {
		return err
	}

	d, err := client.Deals.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get deal: %w", err)
	}
	printf("%s (ID: %s)\n", d.Title, d.ID)
	printf("  Stage:       %s\n", dash(d.StageName))
	printf("  Value:       %s %.2f\n", d.Currency, d.Value)
	printf("  Probability: %d%% (weighted %.2f)\n", d.Probability, d.WeightedValue())
	if d.ContactName != "" {
		printf("  Contact:     %s\n", d.ContactName)
	}
	if d.CompanyName != "" {
		printf("  Company:     %s\n", d.CompanyName)
	}
	printf("  Close date:  %s\n", fmtDate(d.ExpectedCloseDate))
	if d.Notes != "" {
		printf("  Notes:       %s\n", d.Notes)
	}
	return nil
}

// AddDealCommand creates a deal in a stage.
func AddDealCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("add-deal")
	title := fs.String("title", "", "Deal title (required)")
	stage := fs.String("stage", "", "Stage ID or name (required)")
	value := fs.Float64("value", 0, "Deal value")
	currency := fs.String("currency", models.DefaultCurrency, "Three letter currency code")
	probability := fs.Int("probability", 0, "Win probability 0-100")
	contact := fs.String("contact", "", "Contact ID")
	company := fs.String("company", "", "Company ID")
	closeDate := fs.String("close-date", "", "Expected close date (YYYY-MM-DD)")
	notes := fs.String("notes", "", "Notes about the deal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stageID, err := resolveStage(ctx, client, *stage)
	if err != nil {
		return err
	}
	deal, err := client.Deals.Create(ctx, api.DealInput{
		Title:             *title,
		Value:             *value,
		Currency:          *currency,
		StageID:           stageID,
		ContactID:         *contact,
		CompanyID:         *company,
		Probability:       *probability,
		ExpectedCloseDate: *closeDate,
		Notes:             *notes,
	})
	if err != nil {
		return describe(err)
	}
	printf("✓ Deal created: %s (ID: %s)\n", deal.Title, deal.ID)
	printf("  Stage: %s\n", dash(deal.StageName))
	printf("  Value: %s %.2f\n", deal.Currency, deal.Value)
	return nil
}

func UpdateDealCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("update-deal")
	var title, stage, value, currency, probability, contact, company, closeDate, notes stringFlag
	fs.Var(&title, "title", "Deal title")
	fs.Var(&stage, "stage", "Stage ID or name")
	fs.Var(&value, "value", "Deal value")
	fs.Var(&currency, "currency", "Currency code")
	fs.Var(&probability, "probability", "Win probability 0-100")
	fs.Var(&contact, "contact", "Contact ID")
	fs.Var(&company, "company", "Company ID")
	fs.Var(&closeDate, "close-date", "Expected close date (YYYY-MM-DD)")
	fs.Var(&notes, "notes", "Notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "deal ID")
	if err != nil {
		return err
	}

	u := api.DealUpdate{
		Title:             title.ptr(),
		Currency:          currency.ptr(),
		ContactID:         contact.ptr(),
		CompanyID:         company.ptr(),
		ExpectedCloseDate: closeDate.ptr(),
		Notes:             notes.ptr(),
	}
	if stage.set {
		stageID, err := resolveStage(ctx, client, stage.value)
		if err != nil {
			return err
		}
		u.StageID = &stageID
	}
	if value.set {
		v, err := strconv.ParseFloat(value.value, 64)
		if err != nil {
			return fmt.Errorf("invalid input:\n  --value: Value must be a number")
		}
		u.Value = &v
	}
	if probability.set {
		p, err := strconv.Atoi(probability.value)
		if err != nil {
			return fmt.Errorf("invalid input:\n  --probability: Probability must be a whole number")
		}
		u.Probability = &p
	}

	deal, err := client.Deals.Update(ctx, id, u)
	if err != nil {
		return describe(err)
	}
	printf("✓ Deal updated: %s (%s)\n", deal.Title, dash(deal.StageName))
	return nil
}

// DeleteDealCommand deletes a deal after confirmation.
func DeleteDealCommand(ctx context.Context, client *api.Client, args []string) error {
	if err := requireLogin(client); err != nil {
		return err
	}
	fs := newFlagSet("delete-deal")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := positional(fs, "deal ID")
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Delete deal %s?", id), *yes) {
		printf("Cancelled\n")
		return nil
	}
	if err := client.Deals.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	printf("✓ Deal deleted\n")
	return nil
}
