/*
Package cli provides command-line helpers used by the steward command.

Output Formatting:

Results are rendered as table, JSON or CSV through pkg/export:

	out, err := cli.NewOutput(os.Stdout, flagFormat, verbose)
	if err != nil {
		return err
	}
	if err := out.Render(report); err != nil {
		return err
	}
	return cli.CheckRun(report)

Exit Codes:

The core never decides exit status. CheckRun inspects a RunReport and
returns a RunFailedError for committed runs with failures; ExitCode maps
errors to process exit codes.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
