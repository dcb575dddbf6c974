package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codado/codado/cli"
	"github.com/codado/codado/dockerish"
	"github.com/codado/codado/listener"
)

func newWatchCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print docker events and mourn the containers that die",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := new(listener.Builder).InitFromViper(v)
			l, err := b.New(cmd.OutOrStdout())
			if err != nil {
				if errors.Is(err, listener.ErrInvalidConfig) {
					return cli.Usage(cmd, err)
				}
				return cli.Errorf(program, cli.ExitDockerClient, "Not possible to start listening; something went wrong while creating the Docker client: %v", err)
			}
			return listenError(l.Listen(cmd.Context()))
		},
	}
	listener.AddFlags(cmd.Flags())
	return cmd
}

// listenError maps the ways a listener stops to exit codes
func listenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, dockerish.ErrQuery):
		return cli.Errorf(program, cli.ExitTalkToDocker, "Error communicating with the docker daemon: %v", err)
	case errors.Is(err, dockerish.ErrHandler):
		return cli.Errorf(program, cli.ExitHandler, "%v", err)
	}
	return err
}

func noArgs(cmd *cobra.Command, args []string) error {
	return cli.Usage(cmd, cobra.NoArgs(cmd, args))
}
