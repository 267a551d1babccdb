package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spektr-org/priomatrix/engine"
)

// ============================================================================
// CSV HELPER — Point artifact writer and reader
// ============================================================================
// One row per point: name,category,relevance,urgency,source. Multiple source
// labels share one cell joined by engine.SourceSeparator.
//
// The reader maps headers by name, so column order and extra columns do not
// matter. German headers from older exports (relevanz, dringlichkeit) are
// accepted as aliases.
// ============================================================================

// DefaultFileName is the artifact name used when none is given.
const DefaultFileName = "design_principles_analysis.csv"

// Header is the column order written by WriteCSV.
var Header = []string{"name", "category", "relevance", "urgency", "source"}

var (
	ErrBadHeader = errors.New("bad CSV header")
	ErrBadRow    = errors.New("bad CSV row")
)

var headerAliases = map[string]string{
	"relevanz":      "relevance",
	"dringlichkeit": "urgency",
	"sources":       "source",
	"quelle":        "source",
	"kategorie":     "category",
	"principle":     "name",
}

// WriteCSV writes points with a header row. Numbers use the shortest exact
// representation so a round trip preserves them.
func WriteCSV(w io.Writer, points []engine.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, p := range points {
		row := []string{
			p.Name,
			p.Category,
			strconv.FormatFloat(p.Relevance, 'f', -1, 64),
			strconv.FormatFloat(p.Urgency, 'f', -1, 64),
			p.SourceLabel(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row %q: %w", p.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a point artifact. Count is the number of source labels in
// the row, at least 1.
func ReadCSV(r io.Reader) ([]engine.Point, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Read header
	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrBadHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	cols := make(map[string]int, len(Header))
	for i, h := range headers {
		key := toSnakeCase(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	var missing []string
	for _, h := range Header {
		if _, ok := cols[h]; !ok && h != "source" {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", ErrBadHeader, strings.Join(missing, ", "))
	}

	cell := func(row []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// Read rows
	var points []engine.Point
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRow, err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}

		rel, err := parseScore(cell(row, "relevance"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: relevance: %v", ErrBadRow, line, err)
		}
		urg, err := parseScore(cell(row, "urgency"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: urgency: %v", ErrBadRow, line, err)
		}

		sources := engine.SplitSourceLabel(cell(row, "source"))
		count := len(sources)
		if count == 0 {
			count = 1
		}
		points = append(points, engine.Point{
			Name:      cell(row, "name"),
			Category:  cell(row, "category"),
			Relevance: rel,
			Urgency:   urg,
			Sources:   sources,
			Count:     count,
		})
	}

	return points, nil
}

func parseScore(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if f < engine.ScaleMin || f > engine.ScaleMax {
		return 0, fmt.Errorf("%v outside [%v, %v]", f, engine.ScaleMin, engine.ScaleMax)
	}
	return f, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// toSnakeCase converts "Column Name" → "column_name".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
