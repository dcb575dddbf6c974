// Package cmd holds the codado command line
package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codado/codado/cli"
)

const (
	program    = "codado"
	configName = ".codado"
	envPrefix  = "CODADO"
)

// NewRootCommand returns the codado command and its subcommands, sharing one viper instance
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile, logLevel string

	root := &cobra.Command{
		Use:   program,
		Short: "Run code from docker events",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return cli.Usage(cmd, err)
			}
			logrus.SetLevel(level)

			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.codado.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", logrus.InfoLevel.String(), "panic, fatal, error, warn, info, debug or trace")

	root.AddCommand(newWatchCommand(v))
	root.AddCommand(newEventsCommand())
	root.AddCommand(newConfigCommand(&cfgFile))
	return root
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path, err := configPath(cfgFile)
	if err != nil {
		return err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || isMissing(err) {
			logrus.Debugf("no config file at %s", path)
			return nil
		}
		return err
	}
	logrus.Debugf("using config file %s", v.ConfigFileUsed())
	return nil
}

// configPath is the explicit config file or $HOME/.codado.yaml
func configPath(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configName+".yaml"), nil
}

func isMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
