package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codado/codado/dockerish"
)

func newEventsCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the event names handlers can be registered for",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range dockerish.Names() {
				if category != "" && !strings.HasPrefix(name, category+".") {
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list the events of this category, e.g. container")
	return cmd
}
