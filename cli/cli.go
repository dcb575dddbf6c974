// Package cli runs cobra commands as programs: predictable failures become exit codes and messages
// instead of stack traces.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	// ExitOK the program completed
	ExitOK = iota

	// ExitUsage error code for invalid flags or arguments
	ExitUsage = iota

	// ExitFailure error code for unexpected failures
	ExitFailure = iota

	// ExitDockerClient error code for problems while creating the Docker client
	ExitDockerClient = iota

	// ExitTalkToDocker error code for problems while communicating with docker
	ExitTalkToDocker = iota

	// ExitHandler error code for an event handler that failed
	ExitHandler = iota
)

// CLIError is a handled error from a command-line program: something bad but predictable happened
// and the program should exit with ReturnCode after printing Message.
type CLIError struct {
	Program    string
	ReturnCode int
	Message    string
}

func (e *CLIError) Error() string {
	return fmt.Sprintf("** %s exit %d: %s", e.Program, e.ReturnCode, e.Message)
}

// Errorf builds a CLIError
func Errorf(program string, returnCode int, format string, args ...interface{}) *CLIError {
	return &CLIError{Program: program, ReturnCode: returnCode, Message: fmt.Sprintf(format, args...)}
}

// UsageError reports invalid flags or arguments for a command
type UsageError struct {
	Command *cobra.Command
	Err     error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Usage wraps err as a UsageError of cmd. Use it as a flag error func or from Args validators.
func Usage(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Command: cmd, Err: err}
}

// Main runs cmd with args and returns the exit code of the program.
// Usage errors print the command usage followed by the error and return ExitUsage; a CLIError prints
// itself and returns its code; anything else is logged and returns ExitFailure.
func Main(cmd *cobra.Command, args []string, out io.Writer) int {
	if args == nil {
		// cobra would fall back to os.Args
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	cmd.SetFlagErrorFunc(Usage)

	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		c := usageErr.Command
		if c == nil {
			c = cmd
		}
		fmt.Fprintln(out, c.UsageString())
		fmt.Fprintln(out, usageErr.Err)
		return ExitUsage
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		fmt.Fprintln(out, cliErr)
		return cliErr.ReturnCode
	}

	logrus.Errorf("%s: %v", cmd.Name(), err)
	return ExitFailure
}
