package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/robert-malhotra/go-fast5/convert"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	return tbl
}

// warnIf renders n in red when it is not zero.
func warnIf(n int) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return color.New(color.FgRed).Sprint(n)
}

// printReport writes the outcome of a run. Requested is only shown for
// the tools that search for a read list.
func printReport(w io.Writer, rep *convert.Report, requested bool) {
	tbl := newTable(w)
	if requested {
		tbl.AppendRow(table.Row{"requested", rep.Requested})
	}
	tbl.AppendRow(table.Row{"extracted", rep.Extracted})
	if requested {
		tbl.AppendRow(table.Row{"not found", warnIf(rep.NotFound())})
	}
	tbl.AppendRow(table.Row{"failed", warnIf(rep.Failed)})
	tbl.AppendRow(table.Row{"files", rep.Files})
	tbl.Render()
}

func printCompressReport(w io.Writer, rep *convert.Report, target string) {
	tbl := newTable(w)
	tbl.AppendRow(table.Row{"compression", target})
	tbl.AppendRow(table.Row{"files", rep.Files})
	tbl.AppendRow(table.Row{"reads", rep.Extracted})
	tbl.AppendRow(table.Row{"failed", warnIf(rep.Failed)})
	tbl.AppendRow(table.Row{"size before", humanize.Bytes(uint64(rep.BytesIn))})
	tbl.AppendRow(table.Row{"size after", humanize.Bytes(uint64(rep.BytesOut))})
	if rep.BytesIn > 0 {
		tbl.AppendRow(table.Row{"ratio", fmt.Sprintf("%.2f", float64(rep.BytesOut)/float64(rep.BytesIn))})
	}
	tbl.Render()
}

func printCompressions(w io.Writer, results []convert.CompressionResult) {
	tbl := newTable(w)
	tbl.AppendHeader(table.Row{"compression", "read_id", "file"})
	unknown := color.New(color.FgYellow)
	for _, r := range results {
		name := r.Name()
		if !r.Known {
			name = unknown.Sprint(name)
		}
		tbl.AppendRow(table.Row{name, r.ReadID, r.File})
	}
	tbl.Render()
}
