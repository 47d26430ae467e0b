package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Setting keys shared by flags, startkit.yaml and STARTKIT_* variables.
const (
	keyCatalog        = "catalog"
	keyStarter        = "starter"
	keyRegistry       = "registry"
	keyProjectName    = "project-name"
	keyLogLevel       = "log-level"
	keyPackageManager = "package-manager"
)

// app carries state shared by every subcommand.
type app struct {
	configFile string
	v          *viper.Viper
	log        *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "startkit",
		Short:         "Compose projects from a starter and add-ons",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ./startkit.yaml)")
	pf.String(keyLogLevel, "warn", "log level (debug, info, warn, error)")
	pf.String(keyCatalog, "", "catalog file (.json, .yaml)")
	pf.String(keyStarter, "", "starter file, or starter name with --registry")
	pf.String(keyRegistry, "", "registry base URL serving catalog.json and starters/")
	pf.String(keyProjectName, "my-start-app", "project name")

	root.AddCommand(
		newResolveCmd(a),
		newCompileCmd(a),
		newExplainCmd(a),
		newCommandCmd(a),
		newLintCmd(a),
	)
	return root
}

// init loads configuration and builds the logger. Precedence is flag, then
// environment, then config file, then default.
func (a *app) init(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("STARTKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
	} else {
		v.SetConfigName("startkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	a.v = v

	logger, err := newLogger(cmd.ErrOrStderr(), v.GetString(keyLogLevel))
	if err != nil {
		return err
	}
	a.log = logger
	if used := v.ConfigFileUsed(); used != "" {
		a.log.Debug("config loaded", "file", used)
	}
	return nil
}

// newLogger returns a slog.Logger backed by a charmbracelet/log handler.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           lvl,
		Prefix:          "startkit",
		ReportTimestamp: true,
	})
	return slog.New(handler), nil
}
