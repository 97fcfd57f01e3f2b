package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"drakonflow/internal/integrity"
)

const suffixSpacing = "  "

func successf(w io.Writer, format string, a ...any) {
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(w, " %s%s%s\n", green("OK "), suffixSpacing, fmt.Sprintf(format, a...))
}

func warnf(w io.Writer, format string, a ...any) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(w, " %s%s%s\n", yellow("FIX"), suffixSpacing, fmt.Sprintf(format, a...))
}

func errorf(w io.Writer, format string, a ...any) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(w, " %s%s%s\n", red("ERR"), suffixSpacing, fmt.Sprintf(format, a...))
}

func namef(w io.Writer, format string, a ...any) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf(format, a...)))
}

// printError prints err and, for integrity failures, the full report.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(w, "%s %v\n", red("Error:"), err)
	var rerr *integrity.ReportError
	if errors.As(err, &rerr) {
		fmt.Fprintln(w)
		fmt.Fprint(w, rerr.Report.String())
	}
}
