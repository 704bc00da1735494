package main

import (
	"github.com/spf13/cobra"

	"courseware-hq/steward/pkg/audit"
	"courseware-hq/steward/pkg/cli"
)

var auditFlags struct {
	dryRun bool
}

var decideFlags struct {
	id     int64
	action string
	actor  string
	reason string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the audit workflow",
	Long: `Move pending audit records through the review workflow.

Examples:
  # Preview auto-approval
  steward audit auto-approve --dry-run

  # Remediate audits pending longer than audit.timeout_hours
  steward audit timeout

  # Record a reviewer decision
  steward audit decide --id 42 --action reject --actor alice --reason "missing outline"`,
}

var auditAutoApproveCmd = &cobra.Command{
	Use:   "auto-approve",
	Short: "Approve pending audits that pass the eligibility checks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		return env.finishRun(env.newRunner().RunAuditAutoApprove(cmd.Context(), auditFlags.dryRun))
	},
}

var auditTimeoutCmd = &cobra.Command{
	Use:   "timeout",
	Short: "Reassign or reject audits that have been pending too long",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		return env.finishRun(env.newRunner().RunAuditTimeoutCheck(cmd.Context(), auditFlags.dryRun))
	},
}

var auditDecideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Apply a manual decision to one pending audit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := audit.Decision{
			RecordID: decideFlags.id,
			Action:   audit.Action(decideFlags.action),
			Actor:    decideFlags.actor,
			Reason:   decideFlags.reason,
		}
		if err := d.Validate(); err != nil {
			return cli.NewConfigError("decision", err.Error())
		}

		env, err := openEnvironment(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		return env.finishRun(env.newRunner().Decide(cmd.Context(), d, auditFlags.dryRun))
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditAutoApproveCmd, auditTimeoutCmd, auditDecideCmd)

	auditCmd.PersistentFlags().BoolVar(&auditFlags.dryRun, "dry-run", false, "report intended actions without changing anything")

	auditDecideCmd.Flags().Int64Var(&decideFlags.id, "id", 0, "audit record ID")
	auditDecideCmd.Flags().StringVar(&decideFlags.action, "action", "", "decision (approve, reject, skip)")
	auditDecideCmd.Flags().StringVar(&decideFlags.actor, "actor", "", "identity recorded as auditor")
	auditDecideCmd.Flags().StringVar(&decideFlags.reason, "reason", "", "comment, required when rejecting")
	_ = auditDecideCmd.MarkFlagRequired("id")
	_ = auditDecideCmd.MarkFlagRequired("action")
	_ = auditDecideCmd.MarkFlagRequired("actor")
}
