/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"bytes"
	"fmt"

	"github.com/acronis/go-appkit/config"
	"github.com/acronis/go-appkit/log"
	"github.com/spf13/cobra"

	"github.com/acronis/go-exotoken"
	"github.com/acronis/go-exotoken/idptoken"
)

const envVarPrefix = "EXOTOKEN"

type rootFlags struct {
	configFile string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:           "exotoken",
		Short:         "Acquire app-only access tokens from the Microsoft identity platform.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "",
		"YAML configuration file, values may also come from "+envVarPrefix+"_* environment variables")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "",
		"Log level (error, warn, info, debug), logs are written to stderr")

	cmd.AddCommand(newTokenCommand(&flags), newScopesCommand())
	return cmd
}

// AppConfig is the configuration file layout of the command.
type AppConfig struct {
	Log      *log.Config
	ExoToken *exotoken.Config
	IDP      *idptoken.Config
}

// NewAppConfig creates a new AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:      log.NewConfig(log.WithKeyPrefix("log")),
		ExoToken: exotoken.NewConfig(exotoken.WithKeyPrefix("exotoken")),
		IDP:      idptoken.NewConfig(),
	}
}

func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

func (c *AppConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

func loadAppConfig(configFile string) (*AppConfig, error) {
	cfg := NewAppConfig()
	loader := config.NewDefaultLoader(envVarPrefix)
	if configFile != "" {
		if err := loader.LoadFromFile(configFile, config.DataTypeYAML, cfg); err != nil {
			return nil, fmt.Errorf("load configuration from %s: %w", configFile, err)
		}
		return cfg, nil
	}
	if err := loader.LoadFromReader(bytes.NewReader(nil), config.DataTypeYAML, cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *log.Config, level string) (log.FieldLogger, func(), error) {
	if level != "" {
		switch lvl := log.Level(level); lvl {
		case log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug:
			cfg.Level = lvl
		default:
			return nil, nil, fmt.Errorf("unknown log level %q", level)
		}
	}
	// Stdout is reserved for the token response.
	if cfg.Output == log.OutputStdout {
		cfg.Output = log.OutputStderr
	}
	logger, closeFn := log.NewLogger(cfg)
	return logger, closeFn, nil
}
