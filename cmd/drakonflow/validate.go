package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"drakonflow/internal/convert"
	"drakonflow/internal/integrity"
)

func newValidateCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check widget JSON files without changing them",
		Long: `Validate reads each widget JSON file, reports every structural error and
warning, and lists the corrections "fix" would apply. Nothing is written.`,
		Example: `  drakonflow validate login.json
  drakonflow validate --json diagrams/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			analyses := make([]convert.Analysis, 0, len(args))
			invalid := 0
			for _, path := range args {
				an := convert.Analyze(a.conv.Fs, path)
				if !an.ValidDrakon {
					invalid++
				}
				analyses = append(analyses, an)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(analyses); err != nil {
					return err
				}
			} else {
				for _, an := range analyses {
					printAnalysis(cmd, an)
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d files are not valid DRAKON", invalid, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")
	return cmd
}

func printAnalysis(cmd *cobra.Command, an convert.Analysis) {
	out := cmd.OutOrStdout()
	switch {
	case !an.Exists:
		errorf(out, "%s: file not found", an.Path)
		return
	case !an.Readable || !an.ValidJSON:
		errorf(out, "%s: %s", an.Path, an.Error)
		return
	case an.ValidDrakon:
		successf(out, "%s", an.Path)
	default:
		errorf(out, "%s", an.Path)
	}
	if len(an.Report.Errors) > 0 || len(an.Report.Warnings) > 0 {
		fmt.Fprint(out, an.Report.String())
	}
	if len(an.CorrectionsNeeded) > 0 {
		fmt.Fprint(out, integrity.FormatCorrections(an.CorrectionsNeeded))
	}
}
