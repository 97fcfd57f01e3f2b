package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"drakonflow/internal/batch"
	"drakonflow/internal/convert"
	"drakonflow/util"
)

var errOverwritesInput = errors.New("output would overwrite an input file")

type convertOptions struct {
	output    string
	outputDir string
	format    string
	both      bool
	recursive bool
	quiet     bool
}

func newConvertCmd(a *app) *cobra.Command {
	o := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a diagram, or every diagram in a directory, to another format",
		Long: `Convert reads widget JSON (.json), graph JSON (.graph.json), a .drn project
or tagged pseudocode (.drakon) and writes it in the format named by the output
extension: .json, .graph.json, .drn, or .md/.txt for narrative pseudocode.`,
		Example: `  # Widget JSON to a .drn project
  drakonflow convert login.json -o login.drn

  # Pseudocode to both .drn and .json beside it
  drakonflow convert login.drakon --both

  # Every diagram in a directory to narrative text
  drakonflow convert diagrams/ --format md -d out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, a, args[0])
		},
	}
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file; its extension selects the format")
	cmd.Flags().StringVarP(&o.outputDir, "output-dir", "d", "", "output directory (default: beside the input)")
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "output format when --output is not given: json, graph, drn or md")
	cmd.Flags().BoolVar(&o.both, "both", false, "write both .drn and .json")
	cmd.Flags().BoolVarP(&o.recursive, "recursive", "r", false, "descend into subdirectories when the input is a directory")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "print nothing on success")
	return cmd
}

func (o *convertOptions) run(cmd *cobra.Command, a *app, input string) error {
	if !o.both && o.output == "" && o.format == "" {
		return errors.New("one of --output, --format or --both is required")
	}
	var format convert.Format
	if o.format != "" {
		var err error
		if format, err = convert.ParseFormat(o.format); err != nil {
			return err
		}
	}

	info, err := a.conv.Fs.Stat(input)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		inputs := map[string]bool{filepath.Clean(input): true}
		written, skipped, err := o.convertFile(cmd.Context(), a.conv, input, format, inputs)
		o.report(cmd, written)
		if err == nil && len(written) == 0 && len(skipped) > 0 {
			err = fmt.Errorf("%w: %s", errOverwritesInput, strings.Join(skipped, ", "))
		}
		return err
	}
	if o.output != "" {
		return errors.New("--output names a single file; use --format or --both with a directory")
	}

	opts := batch.Options{
		Pattern:          a.cfg.Batch.Pattern,
		Recursive:        o.recursive || a.cfg.Batch.Recursive,
		RespectGitignore: a.cfg.Batch.RespectGitignore,
		Workers:          a.cfg.Batch.Workers,
	}
	files, err := batch.Collect(a.conv.Fs, input, opts)
	if err != nil {
		return err
	}
	inputs := make(map[string]bool, len(files))
	for _, f := range files {
		inputs[filepath.Clean(f)] = true
	}

	results, err := batch.Run(cmd.Context(), files, opts.Workers, func(ctx context.Context, path string) batch.Result {
		written, skipped, err := o.convertFile(ctx, a.conv, path, format, inputs)
		r := batch.Result{Path: path, Status: batch.StatusOK, Outputs: written, Err: err}
		switch {
		case err != nil:
			r.Status = batch.StatusFailed
		case len(written) == 0 && len(skipped) > 0:
			r.Status = batch.StatusSkipped
			r.Err = fmt.Errorf("%w: %s", errOverwritesInput, strings.Join(skipped, ", "))
		}
		return r
	}, a.logger)
	if err != nil {
		return err
	}

	summary := batch.WriteTable(cmd.OutOrStdout(), results)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to convert", summary.Failed, summary.Total)
	}
	return nil
}

// convertFile writes input in each requested format. Outputs that would
// replace a file in inputs are returned as skipped instead of written.
func (o *convertOptions) convertFile(ctx context.Context, conv *convert.Converter, input string, format convert.Format, inputs map[string]bool) (written, skipped []string, err error) {
	if o.outputDir != "" {
		if err := conv.Fs.MkdirAll(o.outputDir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	dir := o.outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}

	type target struct {
		path   string
		format convert.Format
	}
	var targets []target
	switch {
	case o.both:
		for _, f := range []convert.Format{convert.FormatDRN, convert.FormatWidget} {
			targets = append(targets, target{filepath.Join(dir, util.Stem(input)+f.Extension()), f})
		}
	case o.output != "":
		f, err := convert.DetectOutput(o.output)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, target{o.output, f})
	default:
		targets = append(targets, target{filepath.Join(dir, util.Stem(input)+format.Extension()), format})
	}

	var pending []target
	for _, t := range targets {
		if inputs[filepath.Clean(t.path)] {
			skipped = append(skipped, t.path)
			continue
		}
		pending = append(pending, t)
	}
	if len(pending) == 0 {
		return nil, skipped, nil
	}

	d, err := conv.Load(ctx, input)
	if err != nil {
		return nil, skipped, err
	}
	var errs []error
	for _, t := range pending {
		if err := conv.ExportAs(ctx, d, t.path, t.format); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, t.path)
	}
	return written, skipped, errors.Join(errs...)
}

func (o *convertOptions) report(cmd *cobra.Command, written []string) {
	if o.quiet {
		return
	}
	for _, p := range written {
		successf(cmd.OutOrStdout(), "Created %s", p)
	}
}
