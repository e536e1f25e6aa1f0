package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/readur/syncguard/internal/core/config"
	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/storage/postgres"
)

var (
	excludeSource string
	excludeUser   string
	excludeNotes  string
	excludeClear  bool
)

var excludeCmd = &cobra.Command{
	Use:   "exclude <path>",
	Short: "Exclude a path from scanning (or clear an exclusion with --clear)",
	Args:  cobra.ExactArgs(1),
	Run:   runExclude,
}

func init() {
	excludeCmd.Flags().StringVar(&excludeSource, "source-type", "webdav", "source type of the path")
	excludeCmd.Flags().StringVar(&excludeUser, "user", "", "user owning the source")
	excludeCmd.Flags().StringVar(&excludeNotes, "notes", "", "note recorded with the exclusion")
	excludeCmd.Flags().BoolVar(&excludeClear, "clear", false, "clear the exclusion instead of setting it")
	_ = excludeCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(excludeCmd)
}

func runExclude(cmd *cobra.Command, args []string) {
	srcType := domain.SourceType(excludeSource)
	if !srcType.Valid() {
		slog.Error("Unknown source type", "type", excludeSource)
		os.Exit(1)
	}

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
	path := args[0]
	if err := repo.SetUserExcluded(ctx, excludeUser, srcType, path, !excludeClear, excludeNotes); err != nil {
		slog.Error("Failed to update exclusion", "path", path, "error", err)
		os.Exit(1)
	}

	if excludeClear {
		slog.Info("Exclusion cleared", "path", path)
	} else {
		slog.Info("Path excluded from scanning", "path", path)
	}
}
