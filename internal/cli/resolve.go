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
	resolveSource string
	resolveUser   string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Manually resolve the unresolved failure for a path",
	Args:  cobra.ExactArgs(1),
	Run:   runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveSource, "source-type", "webdav", "source type of the path")
	resolveCmd.Flags().StringVar(&resolveUser, "user", "", "user owning the source")
	_ = resolveCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) {
	srcType := domain.SourceType(resolveSource)
	if !srcType.Valid() {
		slog.Error("Unknown source type", "type", resolveSource)
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
	resolved, err := repo.Resolve(ctx, resolveUser, srcType, path, "manual")
	if err != nil {
		slog.Error("Failed to resolve failure", "path", path, "error", err)
		os.Exit(1)
	}
	if !resolved {
		slog.Warn("No unresolved failure for path", "path", path)
		return
	}
	slog.Info("Failure resolved", "path", path)
}
