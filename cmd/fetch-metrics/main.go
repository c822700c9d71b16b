// Command fetch-metrics fetches usage metrics from the web-analytics
// and data-catalog APIs and uploads them to object storage as CSV
// reports. Each source is fetched sequentially; the command exits
// non-zero if any source fails.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gsa/datagov-metrics/config"
	"github.com/gsa/datagov-metrics/internal/utils"
	"github.com/gsa/datagov-metrics/report"
	"github.com/gsa/datagov-metrics/source"
	"github.com/gsa/datagov-metrics/source/analytics"
	"github.com/gsa/datagov-metrics/source/catalog"
	"github.com/gsa/datagov-metrics/storage"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
)

// sourceEnv holds the upstream API settings read from the environment
type sourceEnv struct {
	AnalyticsURL string `env:"ANALYTICS_API_URL" env-default:"https://api.gsa.gov/analytics/dap/v2"`
	AnalyticsKey string `env:"ANALYTICS_API_KEY"`
	CatalogURL   string `env:"CATALOG_API_URL" env-default:"https://catalog.data.gov"`
}

var rootCmd = &cobra.Command{
	Use:   "fetch-metrics",
	Short: "Fetch usage metrics and upload them as reports",
	Long: `Fetch usage metrics from the web-analytics and data-catalog APIs
and upload them to object storage as CSV reports.

Storage is configured with --storage-uri (for example
s3://my-bucket/metrics?region-id=us-east-1 or localfs:///tmp/reports)
or with --config pointing at a TOML/YAML file. Upstream API settings
come from ANALYTICS_API_URL, ANALYTICS_API_KEY and CATALOG_API_URL.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceName, _ := cmd.Flags().GetString("source")
		date, _ := cmd.Flags().GetString("date")
		storageURI, _ := cmd.Flags().GetString("storage-uri")
		configFile, _ := cmd.Flags().GetString("config")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		compress, _ := cmd.Flags().GetBool("compress")
		debug, _ := cmd.Flags().GetBool("debug")

		if storageURI == "" && configFile == "" {
			return fmt.Errorf("either --storage-uri or --config must be specified")
		}
		if storageURI != "" && configFile != "" {
			return fmt.Errorf("cannot specify both --storage-uri and --config")
		}

		if date == "" {
			date = utils.YesterdayUTC()
		}
		if err := utils.ValidateReportDate(date); err != nil {
			return err
		}

		cfg := config.DefaultConfig()
		if debug {
			cfg = config.NewDebugConfig()
		}
		cfg.WithOverwriteExisting(overwrite).WithCompress(compress)

		var storageConfig *config.ReportStorageConfig
		var err error
		if storageURI != "" {
			storageConfig, err = config.NewFromURI(storageURI)
		} else {
			storageConfig, err = config.LoadFile(configFile)
		}
		if err != nil {
			return fmt.Errorf("invalid storage configuration: %w", err)
		}

		fetchers, err := selectFetchers(sourceName, cfg)
		if err != nil {
			return err
		}

		return run(cfg, storageConfig, fetchers, date)
	},
}

func init() {
	rootCmd.Flags().String("source", "all", "Metrics source: analytics, catalog, or all")
	rootCmd.Flags().String("date", "", "Report date in YYYY-MM-DD form (default: yesterday UTC)")
	rootCmd.Flags().String("storage-uri", "", "Report storage URI, e.g. s3://bucket/prefix?region-id=us-east-1")
	rootCmd.Flags().String("config", "", "Path to a TOML/YAML report storage config file")
	rootCmd.Flags().Bool("overwrite", false, "Overwrite existing reports")
	rootCmd.Flags().Bool("compress", false, "Gzip reports before upload")
	rootCmd.Flags().Bool("debug", false, "Enable debug logging")
}

// selectFetchers builds the fetchers for the requested source name
func selectFetchers(sourceName string, cfg *config.Config) ([]source.Fetcher, error) {
	var env sourceEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	analyticsClient := analytics.NewClient(env.AnalyticsURL, env.AnalyticsKey, cfg)
	catalogClient := catalog.NewClient(env.CatalogURL, cfg)

	switch sourceName {
	case "analytics":
		return []source.Fetcher{analyticsClient}, nil
	case "catalog":
		return []source.Fetcher{catalogClient}, nil
	case "all":
		return []source.Fetcher{analyticsClient, catalogClient}, nil
	default:
		return nil, fmt.Errorf("unknown source: %s", sourceName)
	}
}

func run(cfg *config.Config, storageConfig *config.ReportStorageConfig, fetchers []source.Fetcher, date string) error {
	ctx := context.Background()

	provider, err := storage.NewObjectStorageProvider(storageConfig.ToProviderConfig())
	if err != nil {
		return fmt.Errorf("failed to create storage provider: %w", err)
	}

	writer := report.NewReportWriter(provider, cfg)
	defer writer.Close()

	failed := 0
	for _, fetcher := range fetchers {
		rep, err := fetcher.Fetch(ctx, date)
		if err != nil {
			fmt.Printf("Failed to fetch %s metrics: %v\n", fetcher.Source(), err)
			failed++
			continue
		}

		if err := writer.Write(ctx, rep); err != nil {
			fmt.Printf("Failed to write %s report: %v\n", fetcher.Source(), err)
			failed++
			continue
		}

		fmt.Printf("Wrote %s report %s for %s (%d rows)\n",
			rep.Source, rep.Name, rep.Date, len(rep.Rows))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(fetchers))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
