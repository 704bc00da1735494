package cli

import (
	"errors"
	"fmt"

	"courseware-hq/steward/pkg/orchestrator"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsageError = 2
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// RunFailedError is returned when a committed run reported failures. The
// report itself has already been rendered.
type RunFailedError struct {
	RunID    string
	Failures int
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("run %s finished with %d failure(s)", e.RunID, e.Failures)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// CheckRun turns a report into the command result. Dry runs never fail;
// commit runs fail when any item or task failed.
func CheckRun(report *orchestrator.RunReport) error {
	if report == nil || report.DryRun() {
		return nil
	}
	if n := report.FailureCount(); n > 0 {
		return &RunFailedError{RunID: report.ID, Failures: n}
	}
	return nil
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitUsageError
	}
	return ExitFailure
}
