package engine

import "sort"

// ============================================================================
// PRIORITY RANKING
// ============================================================================
// score = relevance × urgency.
//
// Top is the N-prefix of a stable descending order. Bottom is the N-prefix
// of the ascending order, equal scores in input order. With more than 2N
// points Bottom is drawn from the points outside Top; with 2N or fewer the
// two may share points.
// ============================================================================

// DefaultTopN is the default size of the top and bottom lists.
const DefaultTopN = 10

// RankedPoint is a point with its priority score and position.
type RankedPoint struct {
	Point
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`  // 1-based position in the descending order
	Index int     `json:"index"` // position in the input slice
}

// Ranking holds the top-N and bottom-N points by priority score.
type Ranking struct {
	N      int           `json:"n"`
	Total  int           `json:"total"`
	Top    []RankedPoint `json:"top"`
	Bottom []RankedPoint `json:"bottom"`
}

// SortByPriority returns every point ranked by descending score.
// Equal scores keep input order.
func SortByPriority(points []Point) []RankedPoint {
	ranked := make([]RankedPoint, len(points))
	for i, p := range points {
		ranked[i] = RankedPoint{Point: p, Score: p.Score(), Index: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// RankByPriority returns the top n and bottom n points. n <= 0 uses DefaultTopN.
func RankByPriority(points []Point, n int) Ranking {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := SortByPriority(points)
	k := n
	if k > len(ranked) {
		k = len(ranked)
	}

	top := append([]RankedPoint(nil), ranked[:k]...)

	inTop := make(map[int]bool, k)
	if len(ranked) > 2*n {
		for _, p := range top {
			inTop[p.Index] = true
		}
	}
	ascending := make([]RankedPoint, 0, len(ranked))
	for _, p := range ranked {
		if !inTop[p.Index] {
			ascending = append(ascending, p)
		}
	}
	sort.SliceStable(ascending, func(i, j int) bool {
		if ascending[i].Score != ascending[j].Score {
			return ascending[i].Score < ascending[j].Score
		}
		return ascending[i].Index < ascending[j].Index
	})
	bottom := append([]RankedPoint(nil), ascending[:k]...)

	return Ranking{N: n, Total: len(points), Top: top, Bottom: bottom}
}
