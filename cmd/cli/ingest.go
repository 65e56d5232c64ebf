package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/pnet/internal/config"
	"github.com/turtacn/pnet/internal/domain/models"
	"github.com/turtacn/pnet/internal/infrastructure/dataset"
	"github.com/turtacn/pnet/internal/infrastructure/persistence/database"
	"github.com/turtacn/pnet/pkg/errors"
	"github.com/turtacn/pnet/pkg/logger"
)

// newIngestCommand loads a CSV vulnerability export (or generated records) into the
// database the `database` dataset source reads from.
func newIngestCommand(opts *rootOptions) *cobra.Command {
	var (
		csvPath   string
		synthetic int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load vulnerability records into the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (csvPath == "") == (synthetic == 0) {
				return errors.ErrInvalidRequest("exactly one of --csv or --synthetic is required")
			}
			ctx := cmd.Context()

			cfg, log, err := opts.loadConfig()
			if err != nil {
				return err
			}
			conn, err := database.NewDBConnection(ctx, &cfg.Database, log)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := conn.Migrate(ctx); err != nil {
				return err
			}

			records, err := loadRecords(cfg, csvPath, synthetic)
			if err != nil {
				return err
			}
			repo := database.NewVulnerabilityRepository(conn.DB(), log)
			if err := repo.SaveBatch(ctx, records); err != nil {
				return err
			}
			total, err := repo.Count(ctx)
			if err != nil {
				return err
			}

			log.Info(ctx, "records ingested", logger.Fields{"ingested": len(records), "total": total})
			fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d records (%d stored)\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV export with a header row (product and epss columns required)")
	cmd.Flags().IntVar(&synthetic, "synthetic", 0, "generate this many demo records instead of reading a file")
	return cmd
}

func loadRecords(cfg *config.Config, csvPath string, synthetic int) ([]models.VulnerabilityRecord, error) {
	if csvPath != "" {
		return dataset.ReadCSVFile(csvPath)
	}
	asset := ""
	if len(cfg.Dataset.Assets) > 0 {
		asset = cfg.Dataset.Assets[0]
	}
	return dataset.GenerateSynthetic(synthetic, cfg.Dataset.Seed, asset), nil
}

//Personal.AI order the ending
