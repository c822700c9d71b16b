// Command release-datasets releases datasets through the cloud.gov
// platform API. It is a thin wrapper over the cloudgov client: it
// resolves the connection from the CLOUDGOV_* environment variables,
// authenticates, and releases either a single dataset or all datasets
// visible in the configured organization and space.
//
// Exit status is 0 only when every requested release succeeds.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gsa/datagov-metrics/cloudgov"
	"github.com/gsa/datagov-metrics/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "release-datasets",
	Short: "Release datasets through the cloud.gov platform API",
	Long: `Release datasets through the cloud.gov platform API.

Connection values are read from CLOUDGOV_API_URL, CLOUDGOV_API_KEY,
CLOUDGOV_API_SECRET, CLOUDGOV_ORG and CLOUDGOV_SPACE.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		datasetID, err := cmd.Flags().GetString("dataset-id")
		if err != nil {
			return err
		}
		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return err
		}
		debug, err := cmd.Flags().GetBool("debug")
		if err != nil {
			return err
		}

		if datasetID == "" && !all {
			return fmt.Errorf("either --dataset-id or --all must be specified")
		}
		if datasetID != "" && all {
			return fmt.Errorf("cannot specify both --dataset-id and --all")
		}

		cfg := config.DefaultConfig()
		if debug {
			cfg = config.NewDebugConfig()
		}

		return run(cfg, datasetID, all)
	},
}

func init() {
	rootCmd.Flags().String("dataset-id", "", "ID of the dataset to release")
	rootCmd.Flags().Bool("all", false, "Release all available datasets")
	rootCmd.Flags().Bool("debug", false, "Enable debug logging")
}

func run(cfg *config.Config, datasetID string, all bool) error {
	ctx := context.Background()

	conn := cloudgov.ResolveConnectionConfig()
	client := cloudgov.NewClient(conn, cfg)

	status := client.ConnectionStatus()
	fmt.Printf("API URL: %s\n", status.APIURL)
	fmt.Printf("Organization: %s\n", status.Org)
	fmt.Printf("Space: %s\n", status.Space)

	if !client.Authenticate(ctx) {
		return fmt.Errorf("authentication failed, check your API credentials")
	}
	fmt.Println("Authentication successful")

	if datasetID != "" {
		if !client.ReleaseDataset(ctx, datasetID, nil) {
			return fmt.Errorf("failed to release dataset %s", datasetID)
		}
		fmt.Printf("Released dataset: %s\n", datasetID)
		return nil
	}

	datasets := client.Datasets(ctx)
	if len(datasets) == 0 {
		return fmt.Errorf("no datasets found to release")
	}
	fmt.Printf("Found %d datasets to release\n", len(datasets))

	succeeded := 0
	failed := 0
	for _, dataset := range datasets {
		if client.ReleaseDataset(ctx, dataset.ID, nil) {
			fmt.Printf("Released dataset: %s\n", dataset.ID)
			succeeded++
		} else {
			fmt.Printf("Failed to release dataset: %s\n", dataset.ID)
			failed++
		}
	}

	fmt.Printf("\nTotal datasets: %d\nSuccessful: %d\nFailed: %d\n", len(datasets), succeeded, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d releases failed", failed, len(datasets))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
