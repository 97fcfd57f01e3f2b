package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"drakonflow/internal/batch"
	"drakonflow/internal/convert"
	"drakonflow/internal/integrity"
)

type importOptions struct {
	strict    bool
	noFix     bool
	noLogs    bool
	recursive bool
	workers   int
	pattern   string
}

func newImportCmd(a *app) *cobra.Command {
	o := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <file-or-directory>...",
		Short: "Validate and repair widget JSON files in bulk",
		Long: `Import runs each widget JSON file through validation, automatic correction and
a second validation. Corrected diagrams are written to <name>_fixed.json and,
unless --no-logs is given, the validation and correction logs are written
beside the input. Directories are scanned for files matching the batch
pattern; files already ending in _fixed are skipped.`,
		Example: `  drakonflow import diagrams/ --recursive
  drakonflow import login.json --strict --no-logs`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, a, args)
		},
	}
	cmd.Flags().BoolVar(&o.strict, "strict", false, "treat diagrams that stay invalid after correction as failures with no output")
	cmd.Flags().BoolVar(&o.noFix, "no-fix", false, "only validate; never correct")
	cmd.Flags().BoolVar(&o.noLogs, "no-logs", false, "do not write validation and correction logs")
	cmd.Flags().BoolVarP(&o.recursive, "recursive", "r", false, "descend into subdirectories")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "parallel workers (default from config)")
	cmd.Flags().StringVarP(&o.pattern, "pattern", "p", "", "file name pattern for directories (default from config)")
	return cmd
}

func (o *importOptions) run(cmd *cobra.Command, a *app, args []string) error {
	cfg := a.cfg.Batch
	opts := batch.Options{
		Pattern:          cfg.Pattern,
		Recursive:        cfg.Recursive || o.recursive,
		RespectGitignore: cfg.RespectGitignore,
		Workers:          cfg.Workers,
	}
	if o.pattern != "" {
		opts.Pattern = o.pattern
	}
	if o.workers > 0 {
		opts.Workers = o.workers
	}

	var files []string
	for _, arg := range args {
		info, err := a.conv.Fs.Stat(arg)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := batch.Collect(a.conv.Fs, arg, opts)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		namef(cmd.OutOrStdout(), "No files matching %q found", opts.Pattern)
		return nil
	}

	im := &convert.Importer{
		Fs: a.conv.Fs,
		Mode: integrity.Mode{
			Strict:  o.strict || a.cfg.Import.Strict,
			AutoFix: a.cfg.Import.AutoFix && !o.noFix,
		},
		SaveLogs: a.cfg.Import.SaveLogs && !o.noLogs,
		Logger:   a.logger,
	}
	results, err := batch.Run(cmd.Context(), files, opts.Workers, importTask(im), a.logger)
	if err != nil {
		return err
	}

	batch.WriteTable(cmd.OutOrStdout(), results)
	stats := im.Stats()
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", stats.Failed, stats.Total)
	}
	return nil
}

// importTask adapts the importer to a batch task.
func importTask(im *convert.Importer) batch.Task {
	return func(ctx context.Context, path string) batch.Result {
		res := im.ImportFile(ctx, path)
		r := batch.Result{Path: path, Err: res.Err}
		switch res.Status {
		case convert.StatusValid:
			r.Status = batch.StatusOK
		case convert.StatusCorrected:
			r.Status = batch.StatusCorrected
			r.Outputs = []string{res.FixedPath}
		default:
			r.Status = batch.StatusFailed
		}
		return r
	}
}
