package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"campus-engage/internal/categories"
	"campus-engage/internal/common/config"
	"campus-engage/internal/common/database"
	httpclient "campus-engage/internal/common/http"
	"campus-engage/internal/common/observability"
	"campus-engage/internal/common/validation"
	"campus-engage/internal/engage"
	"campus-engage/internal/orgsearch"
)

var indexCmd = &cobra.Command{
	Use:   "index-organizations",
	Short: "Aggregate organizations and bulk index them into Elasticsearch",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireElasticsearch(cfg); err != nil {
		return err
	}
	zapLog, log := newLogger(cfg)
	defer func() { _ = zapLog.Sync() }()
	ctx := cmd.Context()

	validator, err := validation.NewValidator()
	if err != nil {
		return err
	}
	taxonomy, err := categories.Load()
	if err != nil {
		return err
	}
	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("observability init failed", map[string]interface{}{"error": err.Error()})
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	if err := retryWithBackoff(ctx, es.Ping, connectRetries, connectRetryDelay, log, "Elasticsearch connection"); err != nil {
		return err
	}

	client := httpclient.NewClient(config.GetDuration(cfg.Engage.Timeout),
		httpclient.WithRateLimit(cfg.Engage.RequestsPerSecond, cfg.Engage.Burst),
		httpclient.WithUserAgent(cfg.Engage.UserAgent),
	)
	result, err := engage.NewAggregator(engage.NewConfig(cfg.Engage), client, validator, obs, log).FetchOrganizations(ctx)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	if result.Status != engage.StatusComplete {
		log.Warn("indexing a partial aggregation", map[string]interface{}{
			"status":  result.Status,
			"records": len(result.Records),
		})
	}

	search := orgsearch.NewService(orgsearch.NewConfig(cfg.Search), es.Client, taxonomy, log)
	if err := search.EnsureIndex(ctx); err != nil {
		return err
	}
	indexed, err := search.IndexOrganizations(ctx, result.Records)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d organizations (%s, %d fetches)\n",
		indexed, len(result.Records), result.Status, result.Fetches)
	return nil
}
