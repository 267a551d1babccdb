package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// LOADER — YAML document → validated Catalog
// ============================================================================
// Pipeline:
//   1. YAML → generic tree → JSON-Schema check (shape, [0,10] range)
//   2. YAML → typed document
//   3. Semantic checks (unique names, known sources/categories)
//
// The embedded table is validated the same way; a failure there is a
// programming error and Default() panics.
// ============================================================================

//go:embed principles.yaml
var principlesYAML []byte

//go:embed catalog.schema.json
var catalogSchema string

const schemaURL = "https://priomatrix.schemas.local/catalog.schema.json"

// ErrInvalidDataset wraps every validation failure.
var ErrInvalidDataset = errors.New("invalid dataset")

type document struct {
	Sources    []SourceMeta   `yaml:"sources"`
	Categories []CategoryMeta `yaml:"categories"`
	Principles []Principle    `yaml:"principles"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog

	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Default returns the embedded catalog. Panics if the embedded table is invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(principlesYAML)
		if err != nil {
			panic(fmt.Sprintf("dataset: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// EmbeddedYAML returns a copy of the embedded YAML document.
func EmbeddedYAML() []byte {
	return append([]byte(nil), principlesYAML...)
}

// Load reads and validates a catalog document.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return Parse(data)
}

// Parse validates a YAML catalog document and builds a Catalog.
func Parse(data []byte) (*Catalog, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidDataset, err)
	}
	if err := validateSchema(tree); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", ErrInvalidDataset, err)
	}
	return New(doc.Sources, doc.Categories, doc.Principles)
}

// New builds a Catalog from already-decoded parts.
// Checks run here apply to both the YAML path and programmatic construction.
func New(sources []SourceMeta, categories []CategoryMeta, principles []Principle) (*Catalog, error) {
	c := &Catalog{
		sourceIdx:   make(map[string]int, len(sources)),
		categoryIdx: make(map[string]int, len(categories)),
	}

	var problems []string

	for _, s := range sources {
		if s.ID == "" {
			problems = append(problems, "source with empty id")
			continue
		}
		if _, dup := c.sourceIdx[s.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate source %q", s.ID))
			continue
		}
		if s.DisplayName == "" {
			s.DisplayName = s.ID
		}
		c.sourceIdx[s.ID] = len(c.sources)
		c.sources = append(c.sources, s)
	}

	for _, cat := range categories {
		if cat.Name == "" {
			problems = append(problems, "category with empty name")
			continue
		}
		if _, dup := c.categoryIdx[cat.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate category %q", cat.Name))
			continue
		}
		if cat.Color == "" {
			cat.Color = FallbackColor
		}
		c.categoryIdx[cat.Name] = len(c.categories)
		c.categories = append(c.categories, cat)
	}

	names := make(map[string]bool, len(principles))
	for _, p := range principles {
		switch {
		case p.Name == "":
			problems = append(problems, "principle with empty name")
			continue
		case names[p.Name]:
			problems = append(problems, fmt.Sprintf("duplicate principle %q", p.Name))
			continue
		}
		names[p.Name] = true

		if _, ok := c.categoryIdx[p.Category]; !ok {
			problems = append(problems, fmt.Sprintf("principle %q: unknown category %q", p.Name, p.Category))
		}
		for src, r := range p.Ratings {
			if _, ok := c.sourceIdx[src]; !ok {
				problems = append(problems, fmt.Sprintf("principle %q: unknown source %q", p.Name, src))
			}
			if !inScale(r.Relevance) || !inScale(r.Urgency) {
				problems = append(problems, fmt.Sprintf("principle %q: source %q rating outside [0,10]", p.Name, src))
			}
		}
		c.principles = append(c.principles, p.clone())
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDataset, strings.Join(problems, "; "))
	}
	return c, nil
}

func inScale(v *float64) bool {
	return v == nil || (*v >= 0 && *v <= 10)
}

// ============================================================================
// JSON SCHEMA
// ============================================================================

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(catalogSchema)); err != nil {
			compileErr = fmt.Errorf("catalog schema load failed: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("catalog schema compile failed: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// validateSchema re-encodes the YAML tree as JSON so the validator sees
// json.Number values and string-keyed objects only.
func validateSchema(tree any) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return nil
}
