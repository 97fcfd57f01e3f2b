package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"drakonflow/internal/config"
	"drakonflow/internal/convert"
	"drakonflow/internal/logging"
	"drakonflow/internal/server"
)

// app holds what every subcommand needs once flags have been parsed.
type app struct {
	configFile string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	conv   *convert.Converter
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "drakonflow",
		Short:         "Convert, validate and repair DRAKON flowcharts",
		Long:          "drakonflow converts DRAKON diagrams between widget JSON, graph JSON, .drn project files and narrative pseudocode, builds diagrams from tagged pseudocode and source code, and validates or repairs widget JSON.",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", fmt.Sprintf("config file (default ./%s when present)", config.DefaultFile))
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output, same as --log-level debug")

	root.AddCommand(
		newConvertCmd(a),
		newCodeCmd(a),
		newValidateCmd(a),
		newFixCmd(a),
		newImportCmd(a),
		newRenderCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	conv, err := convert.New(cfg, logger)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.conv = conv
	return nil
}
