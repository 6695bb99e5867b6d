package cli

import (
	"github.com/spf13/cobra"
)

func newLeaderboardCmd(st *state) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the ranked leaderboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := st.openService(ctx, false)
			if err != nil {
				return err
			}
			defer svc.Stop()

			rows, err := svc.Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			return NewOutput(cmd.OutOrStdout(), st.output).Print(rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the top N rows (0 for all)")
	return cmd
}

func newRatingsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "ratings",
		Short: "Print every member's rating",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := st.openService(ctx, false)
			if err != nil {
				return err
			}
			defer svc.Stop()

			ratings, err := svc.Ratings(ctx)
			if err != nil {
				return err
			}
			return NewOutput(cmd.OutOrStdout(), st.output).Print(ratings)
		},
	}
}
