package main

import (
	"github.com/spf13/cobra"

	"courseware-hq/steward/pkg/cli"
	"courseware-hq/steward/pkg/scoring"
)

var rankFlags struct {
	sort  string
	limit int
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank valid courses by a score",
	Long: `Rank valid courses by popularity, quality, engagement or completeness.
Ties are broken by course ID.

Examples:
  steward rank
  steward rank --sort quality --limit 20 --format csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := scoring.ParseSortKey(rankFlags.sort); err != nil {
			return cli.NewConfigError("sort", err.Error())
		}
		if rankFlags.limit < 0 {
			return cli.NewConfigError("limit", "must not be negative")
		}

		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ranking, err := newAnalytics(env.cfg, env.store, nil).RankCourses(cmd.Context(), rankFlags.sort, rankFlags.limit)
		if err != nil {
			return cli.NewCommandError("rank", err)
		}
		return env.out.Render(ranking)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVar(&rankFlags.sort, "sort", "", "sort key (popularity, quality, engagement, completeness); default from config")
	rankCmd.Flags().IntVar(&rankFlags.limit, "limit", 0, "number of courses to show; default from config")
}
