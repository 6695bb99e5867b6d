// Package cli implements the boared command line: the HTTP server plus
// offline commands that read and write a store directly.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	repository "github.com/okian/boared/internal/adapters/repository"
	"github.com/okian/boared/internal/config"
	"github.com/okian/boared/pkg/logger"
)

// state is shared by every subcommand of one root command.
type state struct {
	configPath string
	store      string // driver:path override
	logLevel   string
	output     string

	cfg *config.Config
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	st := &state{configPath: os.Getenv(config.PathEnv), output: formatText}

	rootCmd := &cobra.Command{
		Use:   "boared",
		Short: "Board-game tournament tracker with a skill-rating leaderboard",
		Long: `boared records board-game sessions and ranks members by total score
and by a TrueSkill rating replayed from the full session history.

Without a subcommand it runs the HTTP server.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.setup(cmd.Context(), cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), st)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "YAML config file (env: "+config.PathEnv+")")
	rootCmd.PersistentFlags().StringVar(&st.store, "store", "", "Store as driver:path, e.g. sqlite:boared.db (overrides config)")
	rootCmd.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&st.output, "output", "o", st.output, "Output format: text, json")

	rootCmd.AddCommand(newServeCmd(st))
	rootCmd.AddCommand(newLeaderboardCmd(st))
	rootCmd.AddCommand(newRatingsCmd(st))
	rootCmd.AddCommand(newImportCmd(st))
	rootCmd.AddCommand(newExportCmd(st))
	rootCmd.AddCommand(newSeedCmd(st))
	rootCmd.AddCommand(newTransferCmd(st))

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// setup loads configuration, applies flag overrides and initializes logging.
// Logs go to stderr so that command output on stdout stays clean.
func (st *state) setup(ctx context.Context, logOut io.Writer) error {
	cfg, err := config.LoadFile(ctx, st.configPath)
	if err != nil {
		return err
	}
	if st.store != "" {
		cfg.StoreDriver, cfg.StorePath = repository.ParseDSN(st.store)
	}
	if st.logLevel != "" {
		cfg.LogLevel = st.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if st.output != formatText && st.output != formatJSON {
		return fmt.Errorf("unknown output format %q", st.output)
	}
	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithWriter(logOut),
	); err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}
