package dataset

// ============================================================================
// CATALOG — The fixed principle table plus source/category metadata
// ============================================================================
// Loaded once at startup from an embedded YAML document (see load.go).
// Every accessor hands out copies; the catalog itself is never mutated.
// ============================================================================

// FallbackColor is used for categories without a configured colour.
const FallbackColor = "#999999"

// SourceMeta describes a rating origin: the workshop or a numbered interview.
type SourceMeta struct {
	ID              string `json:"id" yaml:"id"`
	DisplayName     string `json:"label" yaml:"label"`
	DefaultSelected bool   `json:"default,omitempty" yaml:"default"`
}

// CategoryMeta describes a principle category and its display colour.
type CategoryMeta struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Rating is one source's (relevance, urgency) pair for a principle.
// Either value may be absent.
type Rating struct {
	Relevance *float64 `json:"relevance,omitempty" yaml:"relevance"`
	Urgency   *float64 `json:"urgency,omitempty" yaml:"urgency"`
}

// Pair returns both values, ok=false unless both are present.
func (r Rating) Pair() (relevance, urgency float64, ok bool) {
	if r.Relevance == nil || r.Urgency == nil {
		return 0, 0, false
	}
	return *r.Relevance, *r.Urgency, true
}

// Principle is a named design consideration rated by several sources.
type Principle struct {
	Name     string            `json:"name" yaml:"name"`
	Category string            `json:"category" yaml:"category"`
	Ratings  map[string]Rating `json:"ratings" yaml:"ratings"`
}

// Rating returns the present (relevance, urgency) pair for a source.
func (p Principle) Rating(source string) (relevance, urgency float64, ok bool) {
	r, exists := p.Ratings[source]
	if !exists {
		return 0, 0, false
	}
	return r.Pair()
}

func (p Principle) clone() Principle {
	out := Principle{Name: p.Name, Category: p.Category, Ratings: make(map[string]Rating, len(p.Ratings))}
	for k, v := range p.Ratings {
		out.Ratings[k] = v
	}
	return out
}

// Catalog is the immutable dataset.
type Catalog struct {
	sources    []SourceMeta
	categories []CategoryMeta
	principles []Principle

	sourceIdx   map[string]int
	categoryIdx map[string]int
}

// Sources returns source metadata in table order.
func (c *Catalog) Sources() []SourceMeta {
	return append([]SourceMeta(nil), c.sources...)
}

// Categories returns category metadata in table order.
func (c *Catalog) Categories() []CategoryMeta {
	return append([]CategoryMeta(nil), c.categories...)
}

// Principles returns a deep copy of the principle records in table order.
func (c *Catalog) Principles() []Principle {
	out := make([]Principle, len(c.principles))
	for i, p := range c.principles {
		out[i] = p.clone()
	}
	return out
}

// Len returns the number of principle records.
func (c *Catalog) Len() int { return len(c.principles) }

// SourceIDs returns all source ids in table order.
func (c *Catalog) SourceIDs() []string {
	ids := make([]string, len(c.sources))
	for i, s := range c.sources {
		ids[i] = s.ID
	}
	return ids
}

// DefaultSources returns the ids of sources selected by default.
func (c *Catalog) DefaultSources() []string {
	var ids []string
	for _, s := range c.sources {
		if s.DefaultSelected {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// CategoryNames returns all category names in table order.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// PrincipleNames returns all principle names in table order.
func (c *Catalog) PrincipleNames() []string {
	names := make([]string, len(c.principles))
	for i, p := range c.principles {
		names[i] = p.Name
	}
	return names
}

// Source looks up a source by id.
func (c *Catalog) Source(id string) (SourceMeta, bool) {
	i, ok := c.sourceIdx[id]
	if !ok {
		return SourceMeta{}, false
	}
	return c.sources[i], true
}

// DisplayName returns the label of a source, or the id itself if unknown.
func (c *Catalog) DisplayName(id string) string {
	if s, ok := c.Source(id); ok {
		return s.DisplayName
	}
	return id
}

// ColorFor returns the colour of a category, FallbackColor if unknown.
func (c *Catalog) ColorFor(category string) string {
	if i, ok := c.categoryIdx[category]; ok {
		return c.categories[i].Color
	}
	return FallbackColor
}

// Palette returns the category → colour map.
func (c *Catalog) Palette() map[string]string {
	out := make(map[string]string, len(c.categories))
	for _, cat := range c.categories {
		out[cat.Name] = cat.Color
	}
	return out
}
