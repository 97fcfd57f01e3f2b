package batch

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Summary counts results by status.
type Summary struct {
	Total     int
	OK        int
	Corrected int
	Failed    int
	Skipped   int
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.OK++
		case StatusCorrected:
			s.Corrected++
		case StatusFailed:
			s.Failed++
		default:
			s.Skipped++
		}
	}
	return s
}

// WriteTable renders one row per result followed by the totals.
func WriteTable(w io.Writer, results []Result) Summary {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"File", "Status", "Detail"})

	for _, r := range results {
		detail := strings.Join(r.Outputs, ", ")
		if r.Err != nil {
			detail = r.Err.Error()
		}
		table.Append([]string{r.Path, string(r.Status), detail})
	}

	s := Summarize(results)
	table.SetFooter([]string{
		fmt.Sprintf("Total: %d", s.Total),
		fmt.Sprintf("ok %d / corrected %d", s.OK, s.Corrected),
		fmt.Sprintf("failed %d / skipped %d", s.Failed, s.Skipped),
	})
	table.Render()
	return s
}
