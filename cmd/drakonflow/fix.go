package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"drakonflow/internal/convert"
	"drakonflow/internal/fsutil"
	"drakonflow/internal/integrity"
	"drakonflow/util"
)

type fixOptions struct {
	output  string
	inPlace bool
	quiet   bool
}

func newFixCmd(a *app) *cobra.Command {
	o := &fixOptions{}
	cmd := &cobra.Command{
		Use:   "fix <file>",
		Short: "Repair a widget JSON file",
		Long: `Fix applies every mechanical correction to a widget JSON file and writes the
result to <name>_fixed.json beside it, to --output, or over the input with
--in-place. The corrected document is validated again before it is written.`,
		Example: `  drakonflow fix login.json
  drakonflow fix login.json -o repaired/login.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, a.conv.Fs, args[0])
		},
	}
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default <name>_fixed.json)")
	cmd.Flags().BoolVar(&o.inPlace, "in-place", false, "overwrite the input file")
	cmd.Flags().BoolVarP(&o.quiet, "quiet", "q", false, "do not list the corrections")
	return cmd
}

func (o *fixOptions) run(cmd *cobra.Command, fsys afero.Fs, path string) error {
	if o.inPlace && o.output != "" {
		return errors.New("--in-place and --output are mutually exclusive")
	}
	out := cmd.OutOrStdout()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return err
	}
	doc, err := integrity.ParseDocument(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fixed, corrections := integrity.CorrectInOrder(doc, integrity.ItemOrder(data))
	if len(corrections) == 0 {
		successf(out, "%s needs no corrections", path)
		return nil
	}
	if report := integrity.Validate(fixed); !report.Valid() {
		return fmt.Errorf("%s: %w", path, &integrity.ReportError{Kind: integrity.ErrUncorrectable, Report: report})
	}

	dest := o.output
	switch {
	case o.inPlace:
		dest = path
	case dest == "":
		dest = util.Sibling(path, convert.FixedSuffix, ".json")
	}
	encoded, err := json.MarshalIndent(fixed, "", "  ")
	if err != nil {
		return err
	}
	if err := fsutil.WriteFile(fsys, dest, append(encoded, '\n'), 0o644); err != nil {
		return err
	}

	if !o.quiet {
		fmt.Fprint(out, integrity.FormatCorrections(corrections))
	}
	warnf(out, "%s: %d corrections written to %s", path, len(corrections), dest)
	return nil
}
