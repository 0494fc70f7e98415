// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Aggregates totals through parallel api calls and draws an ASCII overview
package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Duckiduc/omw-crm-sub001/api"
	"github.com/Duckiduc/omw-crm-sub001/models"
)

type DashboardStats struct {
	// Pipeline overview in stage order
	Pipeline      []PipelineStageStats
	PipelineValue float64
	WeightedValue float64

	TotalContacts   int
	TotalCompanies  int
	TotalDeals      int
	TotalActivities int

	ContactsByStatus map[models.ContactStatus]int

	// Needs attention
	Overdue []models.Activity
}

type PipelineStageStats struct {
	Stage models.DealStage
	Count int
	Value float64
}

// GenerateDashboardStats fetches everything the dashboard shows. Any failing
// request fails the whole dashboard.
func GenerateDashboardStats(ctx context.Context, client *api.Client) (*DashboardStats, error) {
	stats := &DashboardStats{ContactsByStatus: map[models.ContactStatus]int{}}
	statuses := models.ContactStatuses()
	statusTotals := make([]int, len(statuses))

	var stages []models.DealStage
	var deals []models.Deal
	var pending []models.Activity

	one := api.ListParams{Limit: 1}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := client.Contacts.List(ctx, api.ContactFilter{ListParams: one})
		stats.TotalContacts = p.Pagination.Total
		return err
	})
	for i, status := range statuses {
		eg.Go(func() error {
			p, err := client.Contacts.List(ctx, api.ContactFilter{ListParams: one, Status: status})
			statusTotals[i] = p.Pagination.Total
			return err
		})
	}
	eg.Go(func() error {
		p, err := client.Companies.List(ctx, api.CompanyFilter{ListParams: one})
		stats.TotalCompanies = p.Pagination.Total
		return err
	})
	eg.Go(func() error {
		p, err := client.Activities.List(ctx, api.ActivityFilter{ListParams: one})
		stats.TotalActivities = p.Pagination.Total
		return err
	})
	eg.Go(func() error {
		var err error
		stages, err = client.Deals.Stages(ctx)
		return err
	})
	eg.Go(func() error {
		var err error
		deals, err = client.Deals.All(ctx, api.DealFilter{})
		return err
	})
	eg.Go(func() error {
		var err error
		pending, err = client.Activities.All(ctx, api.ActivityFilter{Completed: api.Bool(false), Overdue: true})
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}

	for i, status := range statuses {
		stats.ContactsByStatus[status] = statusTotals[i]
	}
	stats.Pipeline = PipelineByStage(stages, deals)
	stats.TotalDeals = len(deals)
	for _, d := range deals {
		stats.PipelineValue += d.Value
		stats.WeightedValue += d.WeightedValue()
	}
	stats.Overdue = pending
	return stats, nil
}

// PipelineByStage counts deals and sums their value per stage, in stage order.
func PipelineByStage(stages []models.DealStage, deals []models.Deal) []PipelineStageStats {
	ordered := append([]models.DealStage(nil), stages...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	idx := make(map[string]int, len(ordered))
	out := make([]PipelineStageStats, len(ordered))
	for i, s := range ordered {
		out[i].Stage = s
		idx[s.ID] = i
	}
	for _, d := range deals {
		if i, ok := idx[d.StageID]; ok {
			out[i].Count++
			out[i].Value += d.Value
		}
	}
	return out
}

func RenderDashboard(stats *DashboardStats, now time.Time) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  OMW CRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, stats.Pipeline)
	out.WriteString(fmt.Sprintf("  Total %s, weighted %s\n\n", formatMoney(stats.PipelineValue), formatMoney(stats.WeightedValue)))

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts  🏢 %d companies  💼 %d deals  📅 %d activities\n",
		stats.TotalContacts, stats.TotalCompanies, stats.TotalDeals, stats.TotalActivities))
	parts := make([]string, 0, len(stats.ContactsByStatus))
	for _, s := range models.ContactStatuses() {
		parts = append(parts, fmt.Sprintf("%s %d", s, stats.ContactsByStatus[s]))
	}
	out.WriteString("  " + strings.Join(parts, " · ") + "\n\n")

	if len(stats.Overdue) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d overdue activit%s\n", len(stats.Overdue), plural(len(stats.Overdue), "y", "ies")))
		for i, a := range stats.Overdue {
			if i == 5 {
				out.WriteString(fmt.Sprintf("     … and %d more\n", len(stats.Overdue)-5))
				break
			}
			days := int(now.Sub(*a.DueDate).Hours() / 24)
			out.WriteString(fmt.Sprintf("     %-6s %s (%dd late)\n", a.Type, a.Subject, days))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline []PipelineStageStats) {
	maxCount := 0
	for _, p := range pipeline {
		if p.Count > maxCount {
			maxCount = p.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, p := range pipeline {
		barLength := (p.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d (%s)\n", p.Stage.Name, bar, p.Count, formatMoney(p.Value)))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
