package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"carepilot/internal/domain"
	"carepilot/internal/planexport"
)

func newExportCmd() *cobra.Command {
	var (
		planPath string
		format   string
		outPath  string
	)
	cmd := &cobra.Command{
		Use:   "export --plan plan.json",
		Short: "Write a saved care plan's schedule as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := readPlan(planPath)
			if err != nil {
				return err
			}

			f := domain.ExportFormat(strings.ToLower(format))
			if outPath == "" {
				outPath = planexport.BuildFilename(plan.PatientName, f, time.Now())
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer func() { _ = out.Close() }()

			switch f {
			case domain.ExportCSV:
				err = planexport.WriteCSV(out, plan)
			case domain.ExportXLSX:
				err = planexport.WriteXLSX(out, plan)
			default:
				err = fmt.Errorf("%w: %q", domain.ErrUnsupportedExportType, format)
			}
			if err != nil {
				_ = os.Remove(outPath)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&planPath, "plan", "p", "", "care plan JSON written by intake (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default care_plan_<patient>_<date>.<ext>)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
