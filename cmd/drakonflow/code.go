package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"drakonflow/internal/convert"
)

func newCodeCmd(a *app) *cobra.Command {
	var (
		format    string
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "code <source-file>...",
		Short: "Generate one diagram per function of a source file",
		Long: `Code finds the functions of each source file and writes a diagram for every
function with real control flow, named after the function. Go, JavaScript,
TypeScript and Python are parsed with tree-sitter; other brace languages
fall back to a line scanner.`,
		Example: `  drakonflow code handlers.go
  drakonflow code src/app.py --format json -o diagrams/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := codeFormats(format)
			if err != nil {
				return err
			}
			if outputDir != "" {
				if err := a.conv.Fs.MkdirAll(outputDir, 0o755); err != nil {
					return err
				}
			}

			var errs []error
			for _, path := range args {
				dir := outputDir
				if dir == "" {
					dir = filepath.Dir(path)
				}
				written, err := a.conv.FromSource(cmd.Context(), path, dir, formats...)
				for _, p := range written {
					successf(cmd.OutOrStdout(), "Created %s", p)
				}
				if err != nil {
					errorf(cmd.OutOrStdout(), "%s: %v", path, err)
					errs = append(errs, err)
					continue
				}
				if len(written) == 0 {
					namef(cmd.OutOrStdout(), "%s: no functions with control flow found", path)
				}
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d files failed", len(errs), len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "both", "output format: drn, json, both, graph or md")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory (default: beside each source file)")
	return cmd
}

func codeFormats(name string) ([]convert.Format, error) {
	switch name {
	case "", "both":
		return []convert.Format{convert.FormatDRN, convert.FormatWidget}, nil
	}
	f, err := convert.ParseFormat(name)
	if err != nil {
		return nil, errors.Join(err, fmt.Errorf("valid formats are drn, json, both, graph and md"))
	}
	return []convert.Format{f}, nil
}
