// Package cli holds small CLI-presentation helpers shared by cmd/winstow:
// exit-code mapping and nothing else (argument parsing lives in cobra
// command definitions themselves).
package cli

import "errors"

// Exit codes: success, operational failure, malformed invocation.
const (
	ExitSuccess         = 0
	ExitOperationalFail = 1
	ExitUsageError      = 2
)

// ErrUsage marks an error as a malformed invocation (bad flags, wrong
// argument count) rather than a failure encountered while carrying out a
// well-formed one. cmd/winstow wraps cobra's argument/flag errors and its
// own mutually-exclusive-flag checks in ErrUsage so GetExitCode can tell
// the two apart.
type ErrUsage struct {
	Message string
}

func (e ErrUsage) Error() string { return e.Message }

// GetExitCode maps err to a process exit code: any ErrUsage in err's
// chain is a usage error, everything else is an operational failure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var usage ErrUsage
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	return ExitOperationalFail
}
