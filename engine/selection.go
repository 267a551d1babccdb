package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spektr-org/priomatrix/dataset"
)

// ============================================================================
// SELECTION NORMALIZATION
// ============================================================================
// Turns user input (flags, query params, config) into a Selection spelled
// and ordered the way the catalog spells and orders it.
// ============================================================================

var (
	ErrUnknownMode      = errors.New("unknown mode")
	ErrUnknownSource    = errors.New("unknown source")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownPrinciple = errors.New("unknown principle")
)

// ParseMode accepts the canonical names plus a few aliases.
// An empty string yields ModeRaw.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw", "points", "single":
		return ModeRaw, nil
	case "aggregate", "mean", "avg", "average":
		return ModeAggregate, nil
	default:
		return "", fmt.Errorf("%w: %q (want raw or aggregate)", ErrUnknownMode, s)
	}
}

// DefaultSelection is the initial view: default sources, every category,
// every principle, raw points.
func DefaultSelection(cat *dataset.Catalog) Selection {
	return Selection{
		Sources:    cat.DefaultSources(),
		Categories: cat.CategoryNames(),
		Principles: cat.PrincipleNames(),
		Mode:       ModeRaw,
	}
}

// NormalizeSelection resolves every identifier against the catalog, drops
// duplicates and reorders each list into catalog order. Unknown identifiers
// are reported; empty lists stay empty.
func NormalizeSelection(cat *dataset.Catalog, sel Selection) (Selection, error) {
	mode, err := ParseMode(string(sel.Mode))
	if err != nil {
		return Selection{}, err
	}

	sources, err := resolve(sel.Sources, cat.SourceIDs(), ErrUnknownSource)
	if err != nil {
		return Selection{}, err
	}
	categories, err := resolve(sel.Categories, cat.CategoryNames(), ErrUnknownCategory)
	if err != nil {
		return Selection{}, err
	}
	principles, err := resolve(sel.Principles, cat.PrincipleNames(), ErrUnknownPrinciple)
	if err != nil {
		return Selection{}, err
	}

	return Selection{
		Sources:    sources,
		Categories: categories,
		Principles: principles,
		Mode:       mode,
	}, nil
}

// resolve maps requested identifiers onto known ones, returned in known order.
func resolve(requested, known []string, unknownErr error) ([]string, error) {
	byFold := make(map[string]string, len(known))
	for _, k := range known {
		byFold[Fold(k)] = k
	}

	want := make(map[string]bool, len(requested))
	var missing []string
	for _, r := range requested {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		k, ok := byFold[Fold(r)]
		if !ok {
			missing = append(missing, r)
			continue
		}
		want[k] = true
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", unknownErr, strings.Join(missing, ", "))
	}

	out := make([]string, 0, len(want))
	for _, k := range known {
		if want[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

// SplitList splits a comma-separated flag or query value.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
