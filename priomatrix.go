// Package priomatrix plots design principles on a relevance/urgency matrix.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/priomatrix/dataset"
//	    "github.com/spektr-org/priomatrix/engine"
//	)
//
//	cat := dataset.Default()
//	sel := engine.DefaultSelection(cat)
//	sel.Mode = engine.ModeAggregate
//	result, err := engine.Execute(cat, sel, engine.WithTopN(5))
//
// The engine takes a Selection (sources, categories, principles, mode) and
// the embedded principle catalog, and returns render-ready output: the
// matrix chart, histograms, rankings, per-category statistics, rating
// consistency and a text summary.
//
// Images are drawn by the render package, the CSV artifact is handled by
// helpers, and cmd/priomatrix and the server package expose the same views
// on the command line and over HTTP. All computation is local.
package priomatrix
