package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func newCommand(run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:  "mourner",
		RunE: run,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return Usage(cmd, errors.New("too many arguments"))
			}
			return nil
		},
	}
	cmd.Flags().Int("count", 3, "how many deaths to mourn")
	return cmd
}

func TestCLIErrorString(t *testing.T) {
	err := Errorf("mourner", 7, "container %s died", "peaceful_booth")
	assert.Equal(t, "** mourner exit 7: container peaceful_booth died", err.Error())
}

func TestMainExitCodes(t *testing.T) {
	testCases := []struct {
		desc     string
		args     []string
		run      func(cmd *cobra.Command, args []string) error
		expected int
		output   string
	}{
		{
			desc:     "success",
			args:     []string{"--count", "2"},
			run:      func(*cobra.Command, []string) error { return nil },
			expected: ExitOK,
		},
		{
			desc:     "bad flag",
			args:     []string{"--count", "many"},
			run:      func(*cobra.Command, []string) error { return nil },
			expected: ExitUsage,
			output:   "Usage:",
		},
		{
			desc:     "bad arguments",
			args:     []string{"a", "b"},
			run:      func(*cobra.Command, []string) error { return nil },
			expected: ExitUsage,
			output:   "too many arguments",
		},
		{
			desc:     "handled error",
			run:      func(*cobra.Command, []string) error { return Errorf("mourner", 19, "no docker") },
			expected: 19,
			output:   "** mourner exit 19: no docker",
		},
		{
			desc:     "unexpected error",
			run:      func(*cobra.Command, []string) error { return errors.New("boom") },
			expected: ExitFailure,
		},
	}

	for _, test := range testCases {
		t.Run(test.desc, func(t *testing.T) {
			var out bytes.Buffer
			code := Main(newCommand(test.run), test.args, &out)

			assert.Equal(t, test.expected, code)
			assert.Contains(t, out.String(), test.output)
		})
	}
}
