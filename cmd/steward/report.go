package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"courseware-hq/steward/pkg/cli"
	"courseware-hq/steward/pkg/course"
)

var reportCmd = &cobra.Command{
	Use:   "report <course-id>",
	Short: "Score one course and list improvement recommendations",
	Long: `Compute the completeness, popularity, quality and engagement scores of
one course together with its recommendations.

Examples:
  steward report 42
  steward report 42 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return cli.NewConfigError("course-id", fmt.Sprintf("invalid course ID %q", args[0]))
		}

		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := newAnalytics(env.cfg, env.store, nil).CourseReport(cmd.Context(), id)
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				return cli.NewCommandError("report", fmt.Errorf("course %d does not exist", id))
			}
			return cli.NewCommandError("report", err)
		}
		return env.out.Render(report)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
