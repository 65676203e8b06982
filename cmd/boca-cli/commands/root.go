package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bocateam/cmd/boca-cli/globals"
	devenv "bocateam/dev/env"
	"bocateam/lib/configutil"
	"bocateam/lib/platforms/boca/core"
	"bocateam/lib/platforms/boca/team"
	"bocateam/lib/secretstore"
	"bocateam/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	jsonOutput bool

	// opened is set once the secret store is open and closed by execute
	opened *globals.Value
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "boca.json5", "Path to the config file, a missing file means defaults.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages.")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as json.")
}

var rootCmd = &cobra.Command{
	Use:           "boca-cli",
	Short:         "boca-cli is a contestant client for the BOCA online contest administrator.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose, os.Stderr)

		cfg, err := configutil.ReadConfigOr(configPath, defaultConfig())
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}

		cfg.Store, err = devenv.ResolvePath(cfg.Store)
		if err != nil {
			return err
		}
		err = os.MkdirAll(filepath.Dir(cfg.Store), 0700)
		if err != nil {
			return err
		}
		store, err := secretstore.OpenSQLite(cfg.Store)
		if err != nil {
			return fmt.Errorf("open secret store: %w", err)
		}

		opts, err := cfg.sessionOptions()
		if err != nil {
			store.Close()
			return err
		}
		slog.Debug("using config", "store", cfg.Store, "app", opts.App)

		opened = &globals.Value{
			Client: team.NewClient(core.NewSession(store, opts)),
			Store:  store,
			Json:   jsonOutput,
		}
		cmd.SetContext(globals.Set(cmd.Context(), opened))
		return nil
	},
}

// execute runs the command line and closes the secret store whether the command
// succeeded or not, cobra skips post-run hooks when a command fails.
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if opened != nil {
		closeErr := opened.Store.Close()
		opened = nil
		if closeErr != nil {
			slog.Warn("failed to close secret store", "err", closeErr)
		}
	}
	return err
}

func ExecuteContext(ctx context.Context) {
	err := execute(ctx)
	if err == nil {
		return
	}
	message, ok := core.UserFacing(err)
	if !ok || verbose {
		message = err.Error()
	}
	fmt.Fprintln(os.Stderr, message)
	os.Exit(1)
}
