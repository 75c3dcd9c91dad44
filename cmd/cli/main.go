package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"psychoplot/adapters/figstore"
	"psychoplot/app"
	"psychoplot/domain/significance"
	"psychoplot/internal"
	"psychoplot/internal/config"
	"psychoplot/internal/errors"
	"psychoplot/internal/testkit"
	"psychoplot/ui"
)

// cliEnv is the state shared by every subcommand once the root has loaded it
type cliEnv struct {
	envFile string
	outDir  string
	format  string
	sheet   string

	cfg    *config.Config
	logger *internal.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}

	rootCmd := &cobra.Command{
		Use:   "psychoplot",
		Short: "Item characteristic curve grids and annotated correlation heatmaps",
		Long: `Render figures for psychometric scale development and validation.

Configuration is read from the environment (and a .env file when present):
- OUTPUT_DIR (default: .)
- FIGURE_FORMAT png|svg|pdf|jpg|tiff|eps (default: png)
- SIGNIFICANCE_LEVELS (default: 0.05,0.01,0.001)
- CURVE_CELL_SIZE inches (default: 1.5), HEATMAP_FONT_SIZE points (default: 13)
- XLSX_SHEET, TRANSPOSE_MATRICES, PORT, LOG_LEVEL`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&env.envFile, "env-file", ".env", "Environment file to load when it exists")
	rootCmd.PersistentFlags().StringVar(&env.outDir, "out-dir", "", "Directory for figures with no explicit --out (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVar(&env.format, "format", "", "Figure format for generated file names (overrides FIGURE_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&env.sheet, "sheet", "", "Worksheet to read from xlsx inputs (overrides XLSX_SHEET)")

	rootCmd.AddCommand(
		newCurvesCmd(env),
		newHeatmapCmd(env),
		newAllCmd(env),
		newServeCmd(env),
		newDemoCmd(),
	)
	return rootCmd
}

func (e *cliEnv) load() error {
	if e.envFile != "" {
		if _, err := os.Stat(e.envFile); err == nil {
			if err := godotenv.Load(e.envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", e.envFile, err)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if e.outDir != "" {
		cfg.Render.OutputDir = e.outDir
	}
	if e.format != "" {
		cfg.Render.Format = strings.ToLower(e.format)
	}
	if e.sheet != "" {
		cfg.Input.XLSXSheet = e.sheet
	}

	e.cfg = cfg
	e.logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	return nil
}

func (e *cliEnv) painter(report io.Writer) *app.PainterService {
	return app.NewPainterService(e.cfg, report, e.logger)
}

// heatmapFlags are shared by heatmap and all
type heatmapFlags struct {
	levels    string
	transpose bool
	fontSize  float64
}

func (f *heatmapFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.levels, "levels", "", "Three floating-point significance levels, e.g. 0.05,0.01,0.001")
	cmd.Flags().BoolVar(&f.transpose, "transpose", false, "Transpose both matrices after reading (overrides TRANSPOSE_MATRICES)")
	cmd.Flags().Float64Var(&f.fontSize, "font-size", 0, "Annotation and tick label size in points (overrides HEATMAP_FONT_SIZE)")
}

func (f *heatmapFlags) apply(cmd *cobra.Command, req *app.HeatmapRequest) error {
	if f.levels != "" {
		levels, err := significance.ParseLevels(f.levels)
		if err != nil {
			return err
		}
		req.Levels = levels
	}
	if cmd.Flags().Changed("transpose") {
		transpose := f.transpose
		req.Transpose = &transpose
	}
	if cmd.Flags().Changed("font-size") {
		if f.fontSize <= 0 {
			return errors.InvalidInputf("--font-size must be positive, got %g", f.fontSize)
		}
		req.FontSize = f.fontSize
	}
	return nil
}

// cellSizeFlag is shared by curves and all
type cellSizeFlag float64

func (f *cellSizeFlag) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var((*float64)(f), "cell-size", 0, "Curve panel edge in inches (overrides CURVE_CELL_SIZE)")
}

func (f *cellSizeFlag) apply(cmd *cobra.Command, req *app.CurveRequest) error {
	if !cmd.Flags().Changed("cell-size") {
		return nil
	}
	if *f <= 0 {
		return errors.InvalidInputf("--cell-size must be positive, got %g", float64(*f))
	}
	req.CellSize = float64(*f)
	return nil
}

func newCurvesCmd(env *cliEnv) *cobra.Command {
	var out string
	var cellSize cellSizeFlag

	cmd := &cobra.Command{
		Use:   "curves [table]",
		Short: "Draw the item characteristic curve grid",
		Long: `Draw one panel per item, ten panels per row, with a shared
"Response Category" legend. The table needs the columns Item, Theta and P1..P5.

Example: psychoplot curves icc_data.csv --out icc.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.CurveRequest{Table: app.FromPath(args[0]), Out: out}
			if err := cellSize.apply(cmd, &req); err != nil {
				return err
			}
			res, err := env.painter(nil).RenderCurves(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", res.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; the extension picks the format")
	cellSize.register(cmd)
	return cmd
}

func newHeatmapCmd(env *cliEnv) *cobra.Command {
	var out string
	var flags heatmapFlags

	cmd := &cobra.Command{
		Use:   "heatmap [coef] [p]",
		Short: "Draw the annotated correlation heatmap",
		Long: `Draw a coefficient heatmap whose cells carry the coefficient and
significance stars. The thresholds are Bonferroni corrected for the number of
cells in the p-value matrix; the correction is printed before drawing.

Example: psychoplot heatmap corr_matrix.csv p_matrix.csv --levels 0.05,0.01,0.001 --transpose`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.HeatmapRequest{Coef: app.FromPath(args[0]), P: app.FromPath(args[1]), Out: out}
			if err := flags.apply(cmd, &req); err != nil {
				return err
			}
			res, err := env.painter(cmd.OutOrStdout()).RenderHeatmap(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", res.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; the extension picks the format")
	flags.register(cmd)
	return cmd
}

func newAllCmd(env *cliEnv) *cobra.Command {
	var flags heatmapFlags
	var cellSize cellSizeFlag

	cmd := &cobra.Command{
		Use:   "all [table] [coef] [p]",
		Short: "Draw both figures concurrently into the output directory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			curves := app.CurveRequest{Table: app.FromPath(args[0])}
			if err := cellSize.apply(cmd, &curves); err != nil {
				return err
			}
			req := app.HeatmapRequest{Coef: app.FromPath(args[1]), P: app.FromPath(args[2])}
			if err := flags.apply(cmd, &req); err != nil {
				return err
			}
			results, err := env.painter(cmd.OutOrStdout()).RenderAll(cmd.Context(), curves, req)
			if err != nil {
				return err
			}
			for _, res := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", res.Path)
			}
			return nil
		},
	}

	flags.register(cmd)
	cellSize.register(cmd)
	return cmd
}

func newServeCmd(env *cliEnv) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the figure viewer",
		Long: `Start an HTTP server that renders uploaded tables and keeps the
figures in memory until exit.

Routes: GET / (index), POST /api/curves, POST /api/heatmap, GET /figures/{id}, GET /healthz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = env.cfg.Server.Port
			}
			viewer, err := ui.NewApp(env.painter(nil), figstore.NewMemoryStore(), env.logger)
			if err != nil {
				return err
			}
			return viewer.Start(cmd.Context(), ui.Config{Port: port})
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var dir string
	cfg := testkit.DefaultScaleConfig()

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Write synthetic input tables to try the other commands on",
		Long: `Write icc_data.csv, corr_matrix.csv and p_matrix.csv generated from a
graded response model and random coefficients.

Example: psychoplot demo --dir demo && psychoplot all demo/icc_data.csv demo/corr_matrix.csv demo/p_matrix.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := testkit.NewScaleDataGenerator(cfg)
			coef, p, err := gen.GenerateMatrices()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}

			outputs := []struct {
				name  string
				write func(io.Writer) error
			}{
				{"icc_data.csv", func(w io.Writer) error { return testkit.WriteResponseCSV(w, gen.GenerateResponseRows()) }},
				{"corr_matrix.csv", func(w io.Writer) error { return testkit.WriteMatrixCSV(w, coef) }},
				{"p_matrix.csv", func(w io.Writer) error { return testkit.WriteMatrixCSV(w, p) }},
			}
			for _, o := range outputs {
				path := filepath.Join(dir, o.name)
				if err := writeFile(path, o.write); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "demo", "Directory for the generated tables")
	cmd.Flags().IntVar(&cfg.Items, "items", cfg.Items, "Number of items")
	cmd.Flags().IntVar(&cfg.Scales, "scales", cfg.Scales, "Heatmap rows")
	cmd.Flags().IntVar(&cfg.Factors, "factors", cfg.Factors, "Heatmap columns")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
