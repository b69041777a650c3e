package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/intake"
	"eventsPipeline/internal/migration"
	"eventsPipeline/internal/repositories"
	"eventsPipeline/internal/resolver"
	"eventsPipeline/internal/storage"
	"eventsPipeline/internal/urlclassifier"
	"eventsPipeline/internal/utils/logger/handlers/slogpretty"
)

type commandContext struct {
	configFlag  *string
	outputFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, outputFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		outputFlag:  outputFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) format() (outputFormat, error) {
	if c.outputFlag == nil {
		return outputTable, nil
	}
	return parseOutputFormat(*c.outputFlag)
}

func (c *commandContext) logger() *slog.Logger {
	if c.verboseFlag == nil || !*c.verboseFlag {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}
	return slog.New(opts.NewPrettyHandler(os.Stderr))
}

// pipeline is the set of services a command runs against the catalog database.
type pipeline struct {
	repo       *repositories.Repository
	intake     *intake.Service
	migration  *migration.Worker
	classifier *urlclassifier.Classifier
}

func (p *pipeline) Close() error {
	return p.repo.DB.Close()
}

func (c *commandContext) withPipeline(ctx context.Context, fn func(*pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	zone, err := cfg.IntakeConfig.Location()
	if err != nil {
		return err
	}
	log := c.logger()

	repo, err := repositories.Open(ctx, log, cfg.DBConfig)
	if err != nil {
		return fmt.Errorf("connect to catalog: %w", err)
	}

	bucket := storage.NewLocalBucket(cfg.StorageConfig)
	classifier := urlclassifier.New(bucket.Namespace())
	r := resolver.New(log, repo, cfg.IntakeConfig.SimilarityThreshold, nil)

	p := &pipeline{
		repo:       repo,
		intake:     intake.NewService(log, repo, r, cfg.IntakeConfig.DefaultPriceType, nil).WithTimezone(zone),
		migration:  migration.NewWorker(log, repo, bucket, migration.NewHTTPFetcher(cfg.MigrationConfig), classifier, cfg.MigrationConfig, nil),
		classifier: classifier,
	}
	defer p.Close()

	return fn(p)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
