// Command catalog-import runs catalog imports from local or S3 exports.
//
//	catalog-import run --products products.csv --media media.csv --content content.csv --imported-by alice
//	catalog-import run --products s3://exports/products.csv --dry-run --json
//	catalog-import migrate
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/CatalogImport/internal/application"
	"github.com/JonMunkholm/CatalogImport/internal/config"
	"github.com/JonMunkholm/CatalogImport/internal/core"
	"github.com/JonMunkholm/CatalogImport/internal/logging"
)

// Exit codes.
const (
	exitOK         = 0
	exitError      = 1
	exitNoProducts = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, core.ErrNoProducts):
		return exitNoProducts
	default:
		return exitError
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "catalog-import",
		Short:         "Import product exports into the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal outside development.
			if err := godotenv.Overload(envFile); err == nil {
				slog.Debug("loaded env file", "path", envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading configuration")

	root.AddCommand(newRunCmd(), newMigrateCmd(), newResetCmd())
	return root
}

// openApp loads configuration and wires the application.
func openApp(ctx context.Context) (*application.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	return application.New(ctx, cfg)
}

// reportError prints err, followed by its support code and suggested action
// when the error is a known one.
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, "error:", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
}
