package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"carepilot/internal/app"
	"carepilot/internal/config"
	"carepilot/internal/logging"
)

// buildPipeline is replaced in tests.
var buildPipeline = app.NewPipeline

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "carepilot",
		Short: "Turn medical documents into care plans and ask questions about them",
		Long: `carepilot reads a prescription, lab report or diet chart (PDF or image),
extracts a structured care plan with a vision model and answers questions
grounded only in that plan.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline progress to stderr")

	cmd.AddCommand(newIntakeCmd(opts))
	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newExportCmd())
	return cmd
}

// setup loads configuration and a stderr logger that stays quiet unless
// --verbose is set.
func (o *rootOptions) setup(stderr io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logCfg := config.LogConfig{Level: "warn", Format: "console"}
	if o.verbose {
		logCfg.Level = "debug"
	}
	return cfg, logging.NewWithWriter(logCfg, stderr), nil
}
