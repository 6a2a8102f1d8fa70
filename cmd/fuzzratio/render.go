package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	fuzzratio "fuzzratio/pkg"
)

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	// Numbers read better right aligned, the first column is always a label
	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := 1; i < len(headers); i++ {
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func renderResult(result fuzzratio.Result) string {
	tw := newTable("", "ratio", "original", "diff w/h", "percent w/h")
	tw.AppendRow(table.Row{"exact", result.Ratio.String(), "", "", ""})

	if result.Fuzzed != nil {
		tw.AppendRow(fuzzRow("fuzzed", *result.Fuzzed))
	}
	for _, alt := range result.Alts {
		tw.AppendRow(fuzzRow("alt", alt))
	}
	return tw.Render()
}

func fuzzRow(label string, f fuzzratio.FuzzRatio) table.Row {
	return table.Row{
		label,
		f.Ratio.String(),
		fmt.Sprintf("%s x %s", formatNumber(f.Original.Width), formatNumber(f.Original.Height)),
		fmt.Sprintf("%s / %s", formatNumber(f.Error.Width.Diff), formatNumber(f.Error.Height.Diff)),
		fmt.Sprintf("%.2f%% / %.2f%%", f.Error.Width.Percent, f.Error.Height.Percent),
	}
}

func renderSamples(samples []fuzzratio.Sample) string {
	tw := newTable("file", "size", "ratio", "fuzzed", "alts")
	for _, s := range samples {
		fuzzed := "-"
		if s.Result.Fuzzed != nil {
			fuzzed = s.Result.Fuzzed.Ratio.String()
		}
		tw.AppendRow(table.Row{
			s.ID,
			fmt.Sprintf("%dx%d", s.Width, s.Height),
			s.Result.Ratio.String(),
			fuzzed,
			len(s.Result.Alts),
		})
	}
	return tw.Render()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
