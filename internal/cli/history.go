package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/boared/internal/adapters/history"
	"github.com/okian/boared/pkg/logger"
)

func newImportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Load a YAML history into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := history.Load(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			svc, err := st.openService(ctx, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			counts, err := doc.Apply(ctx, svc.Store())
			if err != nil {
				return err
			}
			if err := svc.Publish(ctx); err != nil {
				logger.Get().Warn(ctx, "leaderboard publish failed", logger.Error(err))
			}
			logger.Get().Info(ctx, "imported history", logger.String("file", args[0]), logger.Int("sessions", counts.Sessions))
			return NewOutput(cmd.OutOrStdout(), st.output).Print(counts)
		},
	}
}

func newExportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.yaml]",
		Short: "Write the stored history as YAML (stdout without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := st.openService(ctx, false)
			if err != nil {
				return err
			}
			defer svc.Stop()

			doc, err := history.Export(ctx, svc.Store())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return history.Write(w, doc)
		},
	}
}
