package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"drakonflow/internal/convert"
	"drakonflow/internal/narrative"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		output string
		indent string
	)
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Print a diagram as narrative pseudocode",
		Example: `  drakonflow render login.drn
  drakonflow render login.json -o login.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.conv.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output != "" {
				if err := a.conv.ExportAs(cmd.Context(), d, output, convert.FormatNarrative); err != nil {
					return err
				}
				successf(cmd.OutOrStdout(), "Created %s", output)
				return nil
			}
			r := narrative.NewRenderer(narrative.Options{Indent: indent, Labels: a.conv.Labels})
			fmt.Fprint(cmd.OutOrStdout(), r.Render(d))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&indent, "indent", "", "indent unit (default two spaces)")
	return cmd
}
