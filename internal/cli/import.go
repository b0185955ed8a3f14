package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deanDev5200/web-aspirasi/internal/config"
	"github.com/deanDev5200/web-aspirasi/internal/logger"
	"github.com/deanDev5200/web-aspirasi/internal/repository"
	"github.com/deanDev5200/web-aspirasi/internal/service"
)

func NewImportCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON array of legacy submissions",
		Long: `Import reads a JSON array of {nama, kelas, aspirasi, timestamp} objects
("-" reads stdin) and stores them with their original timestamps.
Entries already present are skipped, so the import can be re-run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readLegacy(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(root.EnvFile)
			if err != nil {
				return err
			}
			if err := logger.Configure(cfg.LogLevel); err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := repository.Open(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.Store, err)
			}
			defer store.Close()
			if err := store.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}

			report, err := service.NewAspirasiService(store, cfg.Location()).Import(ctx, items)
			if err != nil {
				return err
			}

			p := &Printer{Format: root.Format, W: cmd.OutOrStdout()}
			if p.json() {
				return p.JSON(report)
			}
			return p.Message("Migrated %d, skipped %d, failed %d", report.Migrated, report.Skipped, report.Failed)
		},
	}
	return cmd
}

func readLegacy(stdin io.Reader, path string) ([]service.LegacyItem, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var items []service.LegacyItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return items, nil
}
