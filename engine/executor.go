package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spektr-org/priomatrix/dataset"
)

// ============================================================================
// EXECUTOR — Selection → Result pipeline
// ============================================================================
// Entry point: Execute(catalog, selection, opts...)
//
// Pipeline:
//   1. Normalize the selection against the catalog
//   2. Transform principle records → points
//   3. Empty selection → empty-state Result (never an error)
//   4. Derive summary, ranking, statistics, consistency, histograms
//   5. Build matrix/histogram charts and tables
//   6. Resolve reply template placeholders
//
// Every call recomputes from scratch. The catalog is only read.
// ============================================================================

// Execute runs a selection against a catalog and returns a render-ready Result.
// Unknown identifiers or modes are errors; a selection that matches nothing
// is not.
//
// Options:
//   - WithTopN(n) — ranking list size (default 10)
//   - WithHistogramBins(n) — histogram bins (default 10)
//   - WithTitle(s), WithReply(tpl) — presentation text
//   - WithLogger(l) — debug logging
func Execute(cat *dataset.Catalog, sel Selection, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	log := cfg.Logger

	norm, err := NormalizeSelection(cat, sel)
	if err != nil {
		return nil, fmt.Errorf("normalize selection: %w", err)
	}

	start := time.Now()
	points := TransformCatalog(cat, norm)
	log.Debug("transformed selection",
		zap.Strings("sources", norm.Sources),
		zap.Int("categories", len(norm.Categories)),
		zap.Int("principles", len(norm.Principles)),
		zap.String("mode", string(norm.Mode)),
		zap.Int("points", len(points)),
		zap.Duration("took", time.Since(start)),
	)

	raw := points
	if norm.Mode == ModeAggregate && len(points) > 0 {
		rawSel := norm
		rawSel.Mode = ModeRaw
		raw = TransformCatalog(cat, rawSel)
	}

	return derive(norm, points, raw, Palette(cat.Palette()), cfg), nil
}

// Derive builds a Result from already transformed points, e.g. points read
// back from a CSV artifact. raw feeds the consistency view and may equal
// points in raw mode. sel.Categories only contributes its length to the
// summary.
func Derive(sel Selection, points, raw []Point, palette Palette, opts ...Option) *Result {
	return derive(sel, points, raw, palette, applyOptions(opts))
}

func derive(sel Selection, points, raw []Point, palette Palette, cfg *config) *Result {
	log := cfg.Logger
	if sel.Mode == "" {
		sel.Mode = ModeRaw
	}

	title := cfg.Title
	if title == "" {
		title = fmt.Sprintf("%s - %s", DefaultTitle, ModeLabel(sel.Mode))
	}

	result := &Result{
		Success:   true,
		Mode:      sel.Mode,
		Title:     title,
		Points:    points,
		Selection: &sel,
		Summary:   Summarize(points, len(sel.Categories)),
	}

	if len(points) == 0 {
		log.Debug("empty selection", zap.String("mode", string(sel.Mode)))
		result.Empty = true
		result.Points = []Point{}
		result.Reply = EmptyReply
		return result
	}

	ranking := RankByPriority(points, cfg.TopN)
	result.Ranking = &ranking
	result.Categories = CategoryStatistics(points)
	result.Consistency = Consistency(raw)

	result.Matrix = BuildMatrix(points, palette, title)
	for _, m := range []string{MeasureRelevance, MeasureUrgency} {
		if c := BuildHistogramChart(BuildHistogram(points, m, cfg.Bins), palette); c != nil {
			result.Histograms = append(result.Histograms, *c)
		}
	}

	result.Tables = map[string]*TableData{
		TablePoints:      BuildPointsTable(points),
		TableTop:         BuildRankingTable("Top Priorities", ranking.Top),
		TableBottom:      BuildRankingTable("Low Priorities", ranking.Bottom),
		TableCategories:  BuildCategoryTable(result.Categories),
		TableConsistency: BuildConsistencyTable(result.Consistency),
	}

	result.Reply = ResolvePlaceholders(cfg.Reply, result.Summary, result.Ranking)

	log.Debug("derived views",
		zap.Int("points", len(points)),
		zap.Int("top", len(ranking.Top)),
		zap.Int("categories", len(result.Categories)),
		zap.Int("consistency", len(result.Consistency)),
	)
	return result
}

// ModeLabel is the display label of a mode.
func ModeLabel(m Mode) string {
	switch m {
	case ModeAggregate:
		return "Mean values"
	default:
		return "Raw points"
	}
}
