package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/priomatrix/config"
	"github.com/spektr-org/priomatrix/dataset"
	"github.com/spektr-org/priomatrix/engine"
	"github.com/spektr-org/priomatrix/helpers"
	"github.com/spektr-org/priomatrix/render"
	"github.com/spektr-org/priomatrix/server"
)

// ============================================================================
// PRIOMATRIX CLI — Relevance/urgency matrix of design principles
// ============================================================================

const version = "0.3.0"

// app carries state shared by every subcommand of one invocation.
type app struct {
	out    io.Writer
	logger *zap.Logger
	level  zap.AtomicLevel
	owned  bool // logger built here, level follows config

	// Global flags
	verbose    bool
	configPath string
	input      string
	sources    string
	categories string
	principles string
	mode       string
	modeSet    bool
	format     string
	top        int

	cfg     *config.Config
	catalog *dataset.Catalog
}

func main() {
	if err := newRootCmd(os.Stdout, nil).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A non-nil logger skips logger setup.
func newRootCmd(out io.Writer, logger *zap.Logger) *cobra.Command {
	a := &app{out: out, logger: logger}

	root := &cobra.Command{
		Use:   "priomatrix",
		Short: "Relevance/urgency priority matrix for design principles",
		Long: `priomatrix plots design principles rated by several sources on a
relevance/urgency matrix and derives rankings, category statistics,
rating consistency and score distributions.

Selections come from priomatrix.yaml, ~/.config/priomatrix/config.yaml,
--config and the flags below, later layers winning. An empty list flag
such as --sources "" selects nothing.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&a.configPath, "config", "", "Config file (overrides user and project config)")
	pf.StringVarP(&a.input, "input", "i", "", "Recompute views from an exported CSV instead of the catalog.\n"+
		"The CSV counts as aggregate when a row lists several sources; pass --mode to override")
	pf.StringVar(&a.sources, "sources", "", "Comma-separated source ids (default: catalog defaults)")
	pf.StringVar(&a.categories, "categories", "", "Comma-separated categories (default: all)")
	pf.StringVar(&a.principles, "principles", "", "Comma-separated principles (default: all)")
	pf.StringVar(&a.mode, "mode", "", "raw or aggregate")
	pf.StringVarP(&a.format, "format", "f", "", "Output format: table, json, pretty, csv")
	pf.IntVar(&a.top, "top", 0, "Ranking list length")

	root.AddCommand(
		a.pointsCmd(),
		a.rankCmd(),
		a.statsCmd(),
		a.consistencyCmd(),
		a.histogramCmd(),
		a.exportCmd(),
		a.chartCmd(),
		a.catalogCmd(),
		a.serveCmd(),
		a.configCmd(),
		a.versionCmd(),
	)
	return root
}

// setup builds the logger, loads layered config, applies flags and opens
// the catalog.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.logger == nil {
		zc := zap.NewProductionConfig()
		a.level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if a.verbose {
			a.level.SetLevel(zapcore.DebugLevel)
		}
		zc.Level = a.level
		logger, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
		a.owned = true
	}

	cfg, err := config.NewLoader(a.logger).Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.owned && !a.verbose {
		a.level.SetLevel(cfg.Level())
	}

	flags := cmd.Flags()
	if flags.Changed("sources") {
		cfg.Selection.Sources = splitFlag(a.sources)
	}
	if flags.Changed("categories") {
		cfg.Selection.Categories = splitFlag(a.categories)
	}
	if flags.Changed("principles") {
		cfg.Selection.Principles = splitFlag(a.principles)
	}
	if flags.Changed("mode") {
		cfg.Selection.Mode = a.mode
		a.modeSet = true
	}
	if flags.Changed("format") {
		cfg.Output.Format = a.format
	}
	if flags.Changed("top") {
		cfg.Ranking.Top = a.top
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.catalog, err = cfg.Catalog()
	if err != nil {
		return err
	}
	a.logger.Debug("CLI ready",
		zap.String("command", cmd.Name()),
		zap.String("format", cfg.Output.Format),
		zap.Int("principles", a.catalog.Len()),
	)
	return nil
}

// splitFlag is engine.SplitList, except that an empty value is an explicit
// empty selection rather than nil.
func splitFlag(s string) []string {
	if out := engine.SplitList(s); out != nil {
		return out
	}
	return []string{}
}

func (a *app) execute() (*engine.Result, error) {
	if a.input != "" {
		return a.deriveFromCSV()
	}
	return engine.Execute(a.catalog, a.cfg.EngineSelection(a.catalog), a.cfg.EngineOptions(a.logger)...)
}

// deriveFromCSV rebuilds the views from an exported artifact. Only the
// --mode flag applies. Without it a row with more than one source marks an
// aggregate export. Aggregate input has no raw points for the consistency
// view.
func (a *app) deriveFromCSV() (*engine.Result, error) {
	f, err := os.Open(a.input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	points, err := helpers.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.input, err)
	}

	view := engine.NewPointView(points)
	sel := engine.Selection{
		Categories: engine.UniqueValues(view, engine.DimCategory),
		Principles: engine.UniqueValues(view, engine.DimName),
		Mode:       engine.ModeRaw,
	}
	if a.modeSet {
		mode, err := engine.ParseMode(a.cfg.Selection.Mode)
		if err != nil {
			return nil, err
		}
		sel.Mode = mode
	} else {
		for _, p := range points {
			if p.Count > 1 {
				sel.Mode = engine.ModeAggregate
				break
			}
		}
	}
	raw := points
	if sel.Mode == engine.ModeAggregate {
		raw = nil
	}
	a.logger.Debug("loaded CSV input",
		zap.String("path", a.input),
		zap.Int("points", len(points)),
		zap.String("mode", string(sel.Mode)),
	)
	return engine.Derive(sel, points, raw, engine.Palette(a.catalog.Palette()), a.cfg.EngineOptions(a.logger)...), nil
}

// emit writes the JSON payload, or calls table/csv writers by format.
// Empty results print the empty-state reply in table mode.
func (a *app) emit(res *engine.Result, payload any, table func(io.Writer) error, csvw func(*csv.Writer) error) error {
	switch format := a.cfg.Output.Format; format {
	case config.FormatJSON, config.FormatPretty:
		return writeJSON(a.out, payload, format)
	case config.FormatCSV:
		cw := csv.NewWriter(a.out)
		if err := csvw(cw); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	default:
		if res != nil && res.Empty {
			_, err := fmt.Fprintln(a.out, res.Reply)
			return err
		}
		return table(a.out)
	}
}

// ============================================================================
// COMMANDS
// ============================================================================

func (a *app) pointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "points",
		Short: "List the plotted points with a one-line summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.execute()
			if err != nil {
				return err
			}
			return a.emit(res, res.Points,
				func(w io.Writer) error {
					if err := writeTable(w, res.Tables[engine.TablePoints]); err != nil {
						return err
					}
					_, err := fmt.Fprintln(w, res.Reply)
					return err
				},
				func(*csv.Writer) error { return helpers.WriteCSV(a.out, res.Points) })
		},
	}
}

func (a *app) rankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Top and bottom principles by priority score (relevance × urgency)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.execute()
			if err != nil {
				return err
			}
			return a.emit(res, res.Ranking,
				func(w io.Writer) error {
					if err := writeTable(w, res.Tables[engine.TableTop]); err != nil {
						return err
					}
					return writeTable(w, res.Tables[engine.TableBottom])
				},
				func(cw *csv.Writer) error {
					if err := writeTableCSV(cw, res.Tables[engine.TableTop]); err != nil {
						return err
					}
					return writeTableCSV(cw, res.Tables[engine.TableBottom])
				})
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Per-category mean and standard deviation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.execute()
			if err != nil {
				return err
			}
			return a.emit(res, res.Categories,
				func(w io.Writer) error { return writeTable(w, res.Tables[engine.TableCategories]) },
				func(cw *csv.Writer) error { return writeTableCSV(cw, res.Tables[engine.TableCategories]) })
		},
	}
}

func (a *app) consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Principles ordered by agreement between sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.execute()
			if err != nil {
				return err
			}
			return a.emit(res, res.Consistency,
				func(w io.Writer) error { return writeTable(w, res.Tables[engine.TableConsistency]) },
				func(cw *csv.Writer) error { return writeTableCSV(cw, res.Tables[engine.TableConsistency]) })
		},
	}
}

func (a *app) histogramCmd() *cobra.Command {
	var measure string
	var bins int
	cmd := &cobra.Command{
		Use:   "histogram",
		Short: "Distribution of relevance or urgency stacked by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if measure != engine.MeasureRelevance && measure != engine.MeasureUrgency {
				return fmt.Errorf("--measure must be relevance or urgency, got %q", measure)
			}
			if cmd.Flags().Changed("bins") {
				if bins <= 0 {
					return fmt.Errorf("--bins must be positive")
				}
				a.cfg.Histogram.Bins = bins
			}
			res, err := a.execute()
			if err != nil {
				return err
			}

			var chart *engine.ChartConfig
			label := engine.LabelForDimension(measure)
			for i := range res.Histograms {
				if res.Histograms[i].XAxis == label {
					chart = &res.Histograms[i]
				}
			}
			hist := engine.BuildHistogram(res.Points, measure, a.cfg.Histogram.Bins)
			return a.emit(res, hist,
				func(w io.Writer) error { return writeChartTable(w, chart) },
				func(cw *csv.Writer) error {
					if chart == nil {
						return nil
					}
					return writeChartCSV(cw, chart)
				})
		},
	}
	cmd.Flags().StringVar(&measure, "measure", engine.MeasureRelevance, "relevance or urgency")
	cmd.Flags().IntVar(&bins, "bins", engine.DefaultHistogramBins, "Number of bins over [0, 10]")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current points to the CSV artifact",
		Long: `Writes one row per point (name,category,relevance,urgency,source) to
--out, or to output.file from config (default design_principles_analysis.csv).
Use --out - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.execute()
			if err != nil {
				return err
			}
			path := a.cfg.Output.File
			if out != "" {
				path = out
			}
			if path == "-" {
				return helpers.WriteCSV(a.out, res.Points)
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := helpers.WriteCSV(f, res.Points); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("CSV written", zap.String("path", path), zap.Int("points", len(res.Points)))
			_, err = fmt.Fprintf(a.out, "Wrote %d points to %s\n", len(res.Points), path)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file")
	return cmd
}

func (a *app) chartCmd() *cobra.Command {
	var kind, out, imageFormat string
	var width, height int
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the matrix or a histogram as PNG or SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("image-format") {
				imageFormat = a.cfg.Chart.Format
			}
			format, err := render.ParseFormat(imageFormat)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("width") {
				width = a.cfg.Chart.Width
			}
			if !cmd.Flags().Changed("height") {
				height = a.cfg.Chart.Height
			}

			res, err := a.execute()
			if err != nil {
				return err
			}
			if res.Empty {
				return errors.New(engine.EmptyReply)
			}

			var cfg *engine.ChartConfig
			switch kind {
			case "matrix":
				cfg = res.Matrix
			case engine.MeasureRelevance, engine.MeasureUrgency:
				label := engine.LabelForDimension(kind)
				for i := range res.Histograms {
					if res.Histograms[i].XAxis == label {
						cfg = &res.Histograms[i]
					}
				}
			default:
				return fmt.Errorf("--kind must be matrix, relevance or urgency, got %q", kind)
			}

			if out == "" {
				out = fmt.Sprintf("%s.%s", kind, format)
			}
			var w io.Writer = a.out
			var f *os.File
			if out != "-" {
				if f, err = os.Create(out); err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			size := render.WithSize(width, height)
			if kind == "matrix" {
				err = render.Matrix(cfg, format, w, size)
			} else {
				err = render.Histogram(cfg, format, w, size)
			}
			if err != nil {
				return err
			}
			if f != nil {
				if err := f.Close(); err != nil {
					return err
				}
				a.logger.Info("chart written", zap.String("path", out), zap.String("kind", kind))
				_, err = fmt.Fprintf(a.out, "Wrote %s\n", filepath.Clean(out))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "matrix", "matrix, relevance or urgency")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default <kind>.<format>, - for stdout)")
	cmd.Flags().StringVar(&imageFormat, "image-format", "", "png or svg (default from config)")
	cmd.Flags().IntVar(&width, "width", render.DefaultWidth, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", render.DefaultHeight, "Image height in pixels")
	return cmd
}

type catalogOutput struct {
	Sources    []dataset.SourceMeta   `json:"sources"`
	Categories []dataset.CategoryMeta `json:"categories"`
	Principles []dataset.Principle    `json:"principles"`
}

func (a *app) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List sources, categories and principles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := a.catalog
			counts := make(map[string]int)
			for _, p := range cat.Principles() {
				counts[p.Category]++
			}

			var sources, categories [][]string
			for _, s := range cat.Sources() {
				sources = append(sources, []string{s.ID, s.DisplayName, strconv.FormatBool(s.DefaultSelected)})
			}
			for _, c := range cat.Categories() {
				categories = append(categories, []string{c.Name, c.Color, strconv.Itoa(counts[c.Name])})
			}

			payload := catalogOutput{Sources: cat.Sources(), Categories: cat.Categories(), Principles: cat.Principles()}
			return a.emit(nil, payload,
				func(w io.Writer) error {
					if err := writeAligned(w, "Sources", []string{"ID", "Label", "Default"}, sources); err != nil {
						return err
					}
					return writeAligned(w, "Categories", []string{"Name", "Color", "Principles"}, categories)
				},
				func(cw *csv.Writer) error {
					if err := cw.Write([]string{"name", "category", "sources"}); err != nil {
						return err
					}
					for _, p := range cat.Principles() {
						var rated []string
						for _, id := range cat.SourceIDs() {
							if _, _, ok := p.Rating(id); ok {
								rated = append(rated, id)
							}
						}
						if err := cw.Write([]string{p.Name, p.Category, strings.Join(rated, engine.SourceSeparator)}); err != nil {
							return err
						}
					}
					return nil
				})
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.catalog,
				server.WithLogger(a.logger),
				server.WithTopN(a.cfg.Ranking.Top),
				server.WithEngineOptions(engine.WithHistogramBins(a.cfg.Histogram.Bins)),
			)
			return srv.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.ReadHeaderTimeout, a.cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage priomatrix configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create ~/.config/priomatrix/config.yaml with defaults if missing",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.NewLoader(a.logger).EnsureUserConfig()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, path)
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration after layering and flags",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := yaml.Marshal(a.cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				_, err = a.out.Write(data)
				return err
			},
		},
	)
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(a.out, "priomatrix %s\n", version)
			return err
		},
	}
}
