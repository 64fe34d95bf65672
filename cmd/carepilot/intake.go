package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"carepilot/internal/service"
)

func newIntakeCmd(opts *rootOptions) *cobra.Command {
	var (
		pretty  bool
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "intake <file>",
		Short: "Extract a care plan from a PDF or image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			cfg, logger, err := opts.setup(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pipeline, err := buildPipeline(cfg, logger)
			if err != nil {
				return err
			}

			result, err := pipeline.Intake.Process(cmd.Context(), service.IntakeInput{
				FileName: filepath.Base(args[0]),
				Data:     data,
			})
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w.Message)
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			enc := json.NewEncoder(out)
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(result.CarePlan)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the care plan to a file instead of stdout")
	return cmd
}
