package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	repository "github.com/okian/boared/internal/adapters/repository"
	"github.com/okian/boared/pkg/logger"
)

func newTransferCmd(st *state) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Copy every record from one store to another",
		Example: `  boared transfer --from sqlite:boared.db --to bolt:boared.bolt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if from == to {
				return fmt.Errorf("source and destination are both %q", from)
			}
			src, err := repository.Open(repository.ParseDSN(from))
			if err != nil {
				return fmt.Errorf("open %s: %w", from, err)
			}
			defer src.Close()
			dst, err := repository.Open(repository.ParseDSN(to))
			if err != nil {
				return fmt.Errorf("open %s: %w", to, err)
			}
			defer dst.Close()

			counts, err := repository.Transfer(ctx, src, dst)
			if err != nil {
				return err
			}
			logger.Get().Info(ctx, "transferred store",
				logger.String("from", from),
				logger.String("to", to),
				logger.Int("sessions", counts.Sessions),
			)
			return NewOutput(cmd.OutOrStdout(), st.output).Print(counts)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source store as driver:path")
	cmd.Flags().StringVar(&to, "to", "", "Destination store as driver:path")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
