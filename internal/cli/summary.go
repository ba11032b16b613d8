package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/twoLoop-40/hwp-transformer/internal/pipeline"
	"github.com/twoLoop-40/hwp-transformer/internal/transform"
)

func renderSummary(w io.Writer, sum pipeline.Summary) {
	if sum.SourceMissing {
		fmt.Fprintf(w, "Source %s not found; saved an empty document.\n", sum.Source)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Pass", "Pattern", "Planned", "Replaced", "Failed", "Missing"})
	for _, st := range sum.Math {
		tw.AppendRow(statsRow("equation", st))
	}
	tw.AppendRow(statsRow("image", sum.Images))
	tw.AppendFooter(table.Row{"", "total", "", sum.Equations() + sum.Images.Replaced, sum.Failed(), ""})
	tw.Render()

	fmt.Fprintf(w, "Saved %s (%s)\n", sum.Output, sum.Duration.Round(1e6))
	for _, st := range append(append([]transform.Stats{}, sum.Math...), sum.Images) {
		for _, e := range st.Errors {
			fmt.Fprintf(w, "  %s: %s\n", st.Pattern, e)
		}
	}
}

func statsRow(pass string, st transform.Stats) table.Row {
	return table.Row{pass, st.Pattern, st.Planned, st.Replaced, st.Failed, st.Missing}
}
