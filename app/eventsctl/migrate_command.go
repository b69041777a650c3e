package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"eventsPipeline/internal/transport/httpServer/handlers/dto"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy third-party event media into owned storage",
	}
	cmd.AddCommand(newMigratePreviewCommand(ctx))
	cmd.AddCommand(newMigrateRunCommand(ctx))
	return cmd
}

func newMigratePreviewCommand(ctx *commandContext) *cobra.Command {
	var (
		ids   []string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show which media slots a migration would copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := dto.MapMigrationRequest(dto.MigrationRequest{EventIDs: ids, All: len(ids) == 0, Limit: limit})
			if err != nil {
				return err
			}
			format, err := ctx.format()
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), func(p *pipeline) error {
				preview, err := p.migration.Preview(cmd.Context(), req)
				if err != nil {
					return err
				}
				resp := dto.MapPreview(preview)
				return writeOutput(cmd, format, resp, func() string { return renderPreview(resp) })
			})
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "Event ID to inspect (repeatable); all events when omitted")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events to consider")
	return cmd
}

func newMigrateRunCommand(ctx *commandContext) *cobra.Command {
	var req dto.MigrationRequest
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate media of the given events, or of all events with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			mreq, err := dto.MapMigrationRequest(req)
			if err != nil {
				return err
			}
			format, err := ctx.format()
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), func(p *pipeline) error {
				report, err := p.migration.Run(cmd.Context(), mreq)
				if err != nil {
					return err
				}
				resp := dto.MapReport(report)
				return writeOutput(cmd, format, resp, func() string { return renderReport(resp) })
			})
		},
	}
	cmd.Flags().StringSliceVar(&req.EventIDs, "id", nil, "Event ID to migrate (repeatable)")
	cmd.Flags().BoolVar(&req.All, "all", false, "Migrate every event with unhosted media")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Maximum number of events to migrate")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "Only report what would be migrated")
	cmd.MarkFlagsMutuallyExclusive("id", "all")
	cmd.MarkFlagsOneRequired("id", "all")
	return cmd
}

func renderPreview(p dto.PreviewResponse) string {
	rows := make([][]string, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		slots := make([]string, len(c.Slots))
		for i, s := range c.Slots {
			slots[i] = s.Slot + " (" + s.Host + ")"
		}
		rows = append(rows, []string{c.EventID.String(), c.Title, c.Source, c.Status, strings.Join(slots, ", ")})
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"Event", "Title", "Source", "Status", "Slots"}, rows, nil))
	fmt.Fprintf(&b, "\n%d events, %d slots eligible", p.EligibleEvents, p.EligibleSlots)
	if p.Truncated {
		fmt.Fprintf(&b, " (limited to %d, more remain)", p.Limit)
	}
	if len(p.ByHost) > 0 {
		fmt.Fprintf(&b, "\nby host: %s", formatCounts(p.ByHost))
	}
	if len(p.Rejected) > 0 {
		b.WriteString("\n\n")
		rejected := make([][]string, len(p.Rejected))
		for i, r := range p.Rejected {
			rejected[i] = []string{r.EventID.String(), r.Slot, r.URL, r.Reason}
		}
		b.WriteString(renderTable([]string{"Event", "Slot", "Rejected URL", "Reason"}, rejected, nil))
	}
	if len(p.NotFound) > 0 {
		fmt.Fprintf(&b, "\nnot found: %d", len(p.NotFound))
	}
	return b.String()
}

func renderReport(r dto.MigrationResponse) string {
	if r.Preview != nil {
		return "dry run\n" + renderPreview(*r.Preview)
	}

	rows := make([][]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		detail := ""
		switch {
		case o.NewURL != nil:
			detail = *o.NewURL
		case o.Error != nil:
			detail = *o.Error
		}
		rows[i] = []string{o.EventID.String(), o.Slot, yesNo(o.Success), detail}
	}

	var b strings.Builder
	b.WriteString(renderTable([]string{"Event", "Slot", "Migrated", "Result"}, rows, nil))
	b.WriteString("\n")
	b.WriteString(renderTable(
		[]string{"Events", "Slots", "Succeeded", "Failed"},
		[][]string{{
			strconv.Itoa(r.Summary.Events),
			strconv.Itoa(r.Summary.Slots),
			strconv.Itoa(r.Summary.Succeeded),
			strconv.Itoa(r.Summary.Failed),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
	if r.Truncated {
		fmt.Fprintf(&b, "\nlimited to %d events, more remain", r.Limit)
	}
	if len(r.NotFound) > 0 {
		fmt.Fprintf(&b, "\nnot found: %d", len(r.NotFound))
	}
	return b.String()
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
