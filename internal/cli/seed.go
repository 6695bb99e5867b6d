package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/boared/internal/adapters/history"
	"github.com/okian/boared/internal/seed"
	"github.com/okian/boared/pkg/logger"
)

func newSeedCmd(st *state) *cobra.Command {
	cfg := seed.DefaultConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a synthetic history from hidden member skills",
		Long: `seed generates members, games and sessions whose outcomes follow hidden
skills. With --out the history is written as YAML; otherwise it is loaded
into the store and the rating's recovery of the hidden order is reported.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			res, err := seed.Generate(ctx, cfg)
			if err != nil {
				return err
			}

			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				return history.Write(f, res.Document)
			}

			svc, err := st.openService(ctx, true)
			if err != nil {
				return err
			}
			defer svc.Stop()

			counts, err := res.Document.Apply(ctx, svc.Store())
			if err != nil {
				return err
			}
			if err := svc.Publish(ctx); err != nil {
				logger.Get().Warn(ctx, "leaderboard publish failed", logger.Error(err))
			}
			ratings, err := svc.Ratings(ctx)
			if err != nil {
				return err
			}
			concordance, err := seed.Concordance(ratings, res.Skills)
			if err != nil {
				return err
			}
			logger.Get().Info(ctx, "seeded store",
				logger.Int("sessions", counts.Sessions),
				logger.Float64("concordance", concordance),
			)
			if err := NewOutput(cmd.OutOrStdout(), st.output).Print(counts); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "pairwise agreement with hidden skills: %.3f\n", concordance)
			return err
		},
	}

	cmd.Flags().IntVar(&cfg.Members, "members", cfg.Members, "Number of members")
	cmd.Flags().IntVar(&cfg.Games, "games", cfg.Games, "Number of games")
	cmd.Flags().IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "Number of sessions")
	cmd.Flags().IntVar(&cfg.MinPlayers, "min-players", cfg.MinPlayers, "Fewest results per session")
	cmd.Flags().IntVar(&cfg.MaxPlayers, "max-players", cfg.MaxPlayers, "Most results per session")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	cmd.Flags().Float64Var(&cfg.Noise, "noise", cfg.Noise, "Performance noise relative to skill spread")
	cmd.Flags().StringVar(&out, "out", "", "Write the history to this YAML file instead of the store")
	return cmd
}
