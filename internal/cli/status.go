package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/readur/syncguard/internal/core/config"
	"github.com/readur/syncguard/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show unresolved scan failures for all configured sources",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewScanFailureRepo(db)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "SOURCE\tPATH\tTYPE\tSEVERITY\tFAILURES\tNEXT RETRY\tEXCLUDED")

	for _, src := range cfg.Sources {
		failures, err := repo.ListUnresolved(ctx, src.UserID, src.Type)
		if err != nil {
			slog.Error("Failed to list failures", "source", src.ID, "error", err)
			continue
		}
		for _, f := range failures {
			next := "-"
			if f.NextRetryAt != nil {
				next = f.NextRetryAt.Format("2006-01-02 15:04:05")
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%v\n",
				src.ID, f.ResourcePath, f.ErrorType, f.ErrorSeverity,
				f.FailureCount, next, f.UserExcluded)
		}
	}
	_ = w.Flush()
}
