package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/timegraph/pkg/alg/interval"
	"github.com/Sumatoshi-tech/timegraph/pkg/snapshot"
)

// printer writes command results as tables or JSON.
type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

func (p *printer) isJSON() bool {
	return p.format == outputJSON
}

// json writes value as indented JSON.
func (p *printer) json(value any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")

	err := enc.Encode(value)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	return nil
}

// table renders rows under header with an optional footer line.
func (p *printer) table(title string, header table.Row, rows []table.Row, footer string) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(p.w)
	tbl.SetStyle(table.StyleLight)

	if title != "" {
		tbl.SetTitle(title)
	}

	tbl.AppendHeader(header)
	tbl.AppendRows(rows)

	if footer != "" {
		tbl.AppendFooter(table.Row{footer})
	}

	tbl.Render()
}

// delta prints added ids in green and removed ids in red.
func (p *printer) delta(d snapshot.Delta) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	for _, id := range d.NodesAdded {
		added.Fprintf(p.w, "+ node %s\n", id)
	}

	for _, id := range d.NodesRemoved {
		removed.Fprintf(p.w, "- node %s\n", id)
	}

	for _, id := range d.EdgesAdded {
		added.Fprintf(p.w, "+ edge %s\n", id)
	}

	for _, id := range d.EdgesRemoved {
		removed.Fprintf(p.w, "- edge %s\n", id)
	}
}

// line prints a header line in cyan.
func (p *printer) line(format string, args ...any) {
	color.New(color.FgCyan).Fprintf(p.w, format+"\n", args...)
}

// formatTime renders a time, with "-inf" and "+inf" for unbounded sides.
func formatTime(t float64) string {
	switch {
	case math.IsInf(t, -1):
		return "-inf"
	case math.IsInf(t, 1):
		return "+inf"
	default:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
}

func formatQuery(iv interval.Interval) string {
	if iv.IsInstant() {
		return "t=" + formatTime(iv.Start)
	}

	return "[" + formatTime(iv.Start) + ", " + formatTime(iv.End) + ")"
}
