package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/codado/codado/cli"
	"github.com/codado/codado/hotedit"
	"github.com/codado/codado/listener"
)

// editConfig is swapped in tests
var editConfig = hotedit.Edit

func newConfigCommand(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the codado config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Edit the config file in your editor",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(*cfgFile)
			if err != nil {
				return err
			}
			return runConfigEdit(cmd, path)
		},
	})
	return cmd
}

func runConfigEdit(cmd *cobra.Command, path string) error {
	initial, err := os.ReadFile(path)
	if err != nil {
		if !isMissing(err) {
			return err
		}
		if initial, err = defaultConfig(); err != nil {
			return err
		}
	}

	edited, err := editConfig(string(initial), hotedit.Options{ValidateUnchanged: true})
	switch {
	case errors.Is(err, hotedit.ErrUnchanged):
		fmt.Fprintf(cmd.OutOrStdout(), "%s left unchanged\n", path)
		return nil
	case err != nil:
		return cli.Errorf(program, cli.ExitFailure, "editing %s: %v", path, err)
	}

	var settings map[string]interface{}
	if err := yaml.Unmarshal([]byte(edited), &settings); err != nil {
		return cli.Errorf(program, cli.ExitFailure, "%s was not saved, it is not valid YAML: %v", path, err)
	}
	if err := checkSettings(settings); err != nil {
		return cli.Errorf(program, cli.ExitFailure, "%s was not saved: %v", path, err)
	}

	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		return err
	}
	logrus.Infof("saved %s", path)
	return nil
}

// defaultConfig renders the listener flags and their defaults as a config file
func defaultConfig() ([]byte, error) {
	flags := pflag.NewFlagSet("defaults", pflag.ContinueOnError)
	listener.AddFlags(flags)

	var err error
	settings := make(map[string]interface{})
	flags.VisitAll(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "int":
			settings[f.Name], err = flags.GetInt(f.Name)
		case "stringSlice":
			var values []string
			values, err = flags.GetStringSlice(f.Name)
			settings[f.Name] = append([]string{}, values...)
		default:
			settings[f.Name] = f.DefValue
		}
	})
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(settings)
}

// checkSettings builds a listener configuration from settings to validate them
func checkSettings(settings map[string]interface{}) error {
	v := viper.New()
	flags := pflag.NewFlagSet("check", pflag.ContinueOnError)
	listener.AddFlags(flags)
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return err
	}

	return new(listener.Builder).InitFromViper(v).Validate()
}
