package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/priomatrix/engine"
)

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// TABLE OUTPUT — Aligned text for the terminal
// ============================================================================

func writeTable(w io.Writer, t *engine.TableData) error {
	if t == nil {
		return nil
	}
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Label
	}

	rows := t.Rows
	if t.Summary != nil {
		row := make([]string, len(t.Columns))
		row[0] = t.Summary.Label
		for i, c := range t.Columns {
			if v, ok := t.Summary.Values[c.Key]; ok {
				row[i] = v
			}
		}
		rows = append(rows[:len(rows):len(rows)], row)
	}
	return writeAligned(w, t.Title, headers, rows)
}

func writeAligned(w io.Writer, title string, headers []string, rows [][]string) error {
	if title != "" {
		fmt.Fprintf(w, "%s\n\n", title)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// ============================================================================
// CSV OUTPUT — Tables and charts as Sheets-ready CSV
// ============================================================================

func writeTableCSV(cw *csv.Writer, t *engine.TableData) error {
	if t == nil {
		return nil
	}
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Key
	}
	if err := cw.Write(headers); err != nil {
		return err
	}
	return cw.WriteAll(t.Rows)
}

// chartRows flattens a bar chart: label column, one column per series,
// then a total.
func chartRows(c *engine.ChartConfig) ([]string, [][]string) {
	xLabel := c.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}

	headers := []string{xLabel}
	for _, s := range c.Series {
		headers = append(headers, s.Name)
	}
	headers = append(headers, "Total")

	var rows [][]string
	if len(c.Series) == 0 {
		return headers, rows
	}
	for i, d := range c.Series[0].Data {
		row := []string{d.Label}
		total := 0.0
		for _, s := range c.Series {
			if i < len(s.Data) {
				row = append(row, engine.FormatNumber(s.Data[i].Value))
				total += s.Data[i].Value
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, append(row, engine.FormatNumber(total)))
	}
	return headers, rows
}

func writeChartCSV(cw *csv.Writer, c *engine.ChartConfig) error {
	headers, rows := chartRows(c)
	if err := cw.Write(headers); err != nil {
		return err
	}
	return cw.WriteAll(rows)
}

func writeChartTable(w io.Writer, c *engine.ChartConfig) error {
	headers, rows := chartRows(c)
	return writeAligned(w, c.Title, headers, rows)
}
