package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	TopN   int         // size of the top/bottom ranking lists
	Bins   int         // histogram bin count
	Title  string      // matrix chart title, empty means DefaultTitle + mode
	Reply  string      // reply template, see ResolvePlaceholders
	Logger *zap.Logger // never nil after applyOptions
}

// DefaultTitle prefixes the matrix title when WithTitle is not given; the
// mode label is appended.
const DefaultTitle = "Design Principles Matrix"

// DefaultReply is the reply template used when WithReply is not given.
const DefaultReply = "{count} points across {categories} categories. " +
	"Mean relevance {relevance_mean}, mean urgency {urgency_mean}. " +
	"Highest priority: {top_name} ({top_score})."

// WithTopN sets how many points the ranking lists hold.
func WithTopN(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.TopN = n
		}
	}
}

// WithHistogramBins sets the number of histogram bins.
func WithHistogramBins(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.Bins = n
		}
	}
}

// WithTitle overrides the matrix chart title.
func WithTitle(title string) Option {
	return func(c *config) {
		c.Title = title
	}
}

// WithReply sets the reply template.
func WithReply(template string) Option {
	return func(c *config) {
		c.Reply = template
	}
}

// WithLogger routes engine debug logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		TopN:   DefaultTopN,
		Bins:   DefaultHistogramBins,
		Reply:  DefaultReply,
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
