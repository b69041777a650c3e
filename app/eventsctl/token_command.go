package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eventsPipeline/internal/auth"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
		secret  string
	)
	cmd := &cobra.Command{
		Use:         "token",
		Short:       "Issue a signed collector token",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return fmt.Errorf("no --secret given and config unavailable: %w", err)
				}
				secret = cfg.HttpServer.CollectorSecret
			}
			if ttl <= 0 {
				return errors.New("--ttl must be positive")
			}
			token, err := auth.IssueToken(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "collector", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "Collector secret (defaults to httpServer.collectorSecret)")
	return cmd
}
