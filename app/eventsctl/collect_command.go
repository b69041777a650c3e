package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"eventsPipeline/internal/orchestrator"
	"eventsPipeline/internal/scraper"
	"eventsPipeline/internal/transport/httpServer/handlers/dto"
)

func newCollectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "collect [site]...",
		Short: "Scrape configured sites and submit their events through intake",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			format, err := ctx.format()
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd.Context(), func(p *pipeline) error {
				log := ctx.logger()
				s := scraper.New(log, cfg.ScraperConfig, p.intake)
				go s.Start()
				defer s.Shutdown(cmd.Context())

				o := orchestrator.New(log, cfg.ScraperConfig, s)
				sites, err := o.Sites(args...)
				if err != nil {
					return err
				}

				reports := dto.MapCollectorReports(o.Collect(cmd.Context(), sites))
				return writeOutput(cmd, format, reports, func() string {
					rows := make([][]string, len(reports))
					for i, r := range reports {
						rows[i] = []string{
							r.Site,
							strconv.Itoa(r.Scraped),
							strconv.Itoa(r.Created),
							strconv.Itoa(r.Duplicates),
							strconv.Itoa(r.Invalid),
							strconv.Itoa(r.Failed),
							r.Error,
						}
					}
					return renderTable(
						[]string{"Site", "Scraped", "Created", "Duplicates", "Invalid", "Failed", "Error"},
						rows,
						[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
					)
				})
			})
		},
	}
}
