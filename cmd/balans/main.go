package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/hylla/balans/internal/adapters/classifier"
	"github.com/hylla/balans/internal/adapters/server"
	"github.com/hylla/balans/internal/adapters/server/common"
	"github.com/hylla/balans/internal/adapters/storage/sqlite"
	"github.com/hylla/balans/internal/app"
	"github.com/hylla/balans/internal/config"
	"github.com/hylla/balans/internal/domain"
	"github.com/hylla/balans/internal/engine"
	"github.com/hylla/balans/internal/platform"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalOptions carries root-level flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dbPath     string
	devMode    bool
	jsonOut    bool
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := fang.Execute(context.Background(), root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the balans command tree.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "balans",
		Short: "Household cognitive-load analysis",
		Long: `Balans measures the invisible planning, scheduling, and coordination work
inside a household, compares it with what each person reports doing, and
surfaces the gaps as ranked evidence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", version == "dev", "use dev mode paths (balans-dev)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "output JSON")

	root.AddCommand(newAnalyzeCmd(opts, stdout, stderr))
	root.AddCommand(newResultCmd(opts, stdout, stderr))
	root.AddCommand(newDiscrepanciesCmd(opts, stdout, stderr))
	root.AddCommand(newHouseholdsCmd(opts, stdout, stderr))
	root.AddCommand(newImportCmd(opts, stderr))
	root.AddCommand(newExportCmd(opts, stdout, stderr))
	root.AddCommand(newServeCmd(opts, stderr))
	root.AddCommand(newPathsCmd(opts, stdout))
	return root
}

// runtime bundles the opened collaborators behind one command invocation.
type runtime struct {
	cfg     config.Config
	logger  *charmlog.Logger
	store   *sqlite.Store
	service *app.Service
}

// close releases runtime resources.
func (rt *runtime) close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.Warn("sqlite close failed", "err", err)
		}
	}
}

// openRuntime resolves paths and config, opens the store, and wires the
// pipeline and service. Environment overrides mirror the flag names.
func (o *globalOptions) openRuntime(stderr io.Writer) (*runtime, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: "balans",
		DevMode: o.devMode,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve app paths: %w", err)
	}

	configPath := strings.TrimSpace(o.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("BALANS_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}
	dbPath := strings.TrimSpace(o.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("BALANS_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newLogger(stderr, cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}
	logger.Debug("configuration loaded", "config_path", configPath, "db_path", cfg.Database.Path)

	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	logger.Debug("sqlite store ready", "db_path", cfg.Database.Path)

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: app.NewService(store, pipeline, app.ServiceConfig{Logger: logger}),
	}, nil
}

// newLogger builds the runtime logger from config.
func newLogger(stderr io.Writer, cfg config.LoggingConfig) (*charmlog.Logger, error) {
	level, err := charmlog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return charmlog.NewWithOptions(stderr, charmlog.Options{
		Level:           level,
		Prefix:          "balans",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmlog.TextFormatter,
	}), nil
}

// buildPipeline assembles the analysis pipeline from configuration: weight
// table overrides plus the configured classifier mode.
func buildPipeline(cfg config.Config, logger *charmlog.Logger) (*engine.Pipeline, error) {
	tables := engine.DefaultTables()
	applyEngineOverrides(&tables, cfg.Engine)

	engineCfg := engine.Config{
		Logger:              logger,
		ClassifyConcurrency: cfg.Classifier.Concurrency,
		ClassifyTimeout:     time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
	}
	if cfg.Classifier.Mode == config.ClassifierModeHTTP {
		client, err := classifier.NewHTTPClient(classifier.HTTPOptions{
			Endpoint:  cfg.Classifier.Endpoint,
			Model:     cfg.Classifier.Model,
			APIKeyEnv: cfg.Classifier.APIKeyEnv,
			Timeout:   time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("configure http classifier: %w", err)
		}
		engineCfg.Classifier = client
	}

	pipeline, err := engine.New(tables, engineCfg)
	if err != nil {
		return nil, fmt.Errorf("build analysis pipeline: %w", err)
	}
	return pipeline, nil
}

// applyEngineOverrides copies configured non-zero tuning values into the
// weight tables. Config validation guarantees the burnout bands are either
// all set or all zero.
func applyEngineOverrides(tables *engine.Tables, cfg config.EngineConfig) {
	if cfg.SignificanceThreshold > 0 {
		tables.SignificanceThreshold = cfg.SignificanceThreshold
	}
	if cfg.ImbalanceThreshold > 0 {
		tables.ImbalanceThreshold = cfg.ImbalanceThreshold
	}
	if cfg.EvidenceCap > 0 {
		tables.EvidenceCap = cfg.EvidenceCap
	}
	if cfg.BurnoutMediumAt > 0 {
		tables.BurnoutMediumAt = cfg.BurnoutMediumAt
		tables.BurnoutHighAt = cfg.BurnoutHighAt
		tables.BurnoutCriticalAt = cfg.BurnoutCriticalAt
	}
}

// newAnalyzeCmd builds `balans analyze`.
func newAnalyzeCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		atFlag   string
		filePath string
	)
	cmd := &cobra.Command{
		Use:   "analyze [household-id]",
		Short: "Run a cognitive-load analysis",
		Long: `Analyze a household's stored self-reports and activity records, or a
snapshot file (--file) without touching the store. Snapshot files may be
JSON or YAML.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evalTime, err := parseEvaluationTime(atFlag)
			if err != nil {
				return err
			}
			rt, err := opts.openRuntime(stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			var result domain.AnalysisResult
			if filePath != "" {
				content, err := os.ReadFile(filePath)
				if err != nil {
					return fmt.Errorf("read snapshot file: %w", err)
				}
				snap, err := app.DecodeSnapshot(content)
				if err != nil {
					return fmt.Errorf("decode snapshot: %w", err)
				}
				result, err = rt.service.AnalyzeSnapshot(cmd.Context(), snap, evalTime)
				if err != nil {
					return err
				}
			} else {
				if len(args) == 0 {
					return fmt.Errorf("household id is required unless --file is given")
				}
				result, err = rt.service.AnalyzeHousehold(cmd.Context(), app.AnalyzeHouseholdInput{
					HouseholdID:    args[0],
					EvaluationTime: evalTime,
				})
				if err != nil {
					return err
				}
			}
			return printResult(stdout, result, opts.jsonOut)
		},
	}
	cmd.Flags().StringVar(&atFlag, "at", "", "evaluation time (RFC3339, defaults to now)")
	cmd.Flags().StringVar(&filePath, "file", "", "analyze a snapshot file instead of the store")
	return cmd
}

// newResultCmd builds `balans result`.
func newResultCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "result <household-id>",
		Short: "Show the latest archived analysis result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.service.LatestResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(stdout, result, opts.jsonOut)
		},
	}
}

// newDiscrepanciesCmd builds `balans discrepancies`.
func newDiscrepanciesCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "discrepancies <household-id>",
		Short: "List perception gaps from the latest analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			discrepancies, err := rt.service.ListDiscrepancies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(stdout, map[string]any{"discrepancies": discrepancies})
			}
			renderDiscrepancies(stdout, discrepancies)
			return nil
		},
	}
}

// newHouseholdsCmd builds `balans households`.
func newHouseholdsCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "households",
		Short: "List household ids known to the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.openRuntime(stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			ids, err := rt.service.ListHouseholds(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(stdout, map[string]any{"households": ids})
			}
			for _, id := range ids {
				_, _ = fmt.Fprintln(stdout, id)
			}
			return nil
		},
	}
}

// newImportCmd builds `balans import`.
func newImportCmd(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a household snapshot file into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			snap, err := app.DecodeSnapshot(content)
			if err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			rt, err := opts.openRuntime(stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			if err := rt.service.ImportSnapshot(cmd.Context(), snap); err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			rt.logger.Info("snapshot imported", "household_id", snap.HouseholdID,
				"reports", len(snap.SelfReports), "records", len(snap.ActivityRecords))
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// newExportCmd builds `balans export`.
func newExportCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <household-id>",
		Short: "Export one household's stored inputs as a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openRuntime(stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			snap, err := rt.service.ExportSnapshot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			encoded, err := app.EncodeSnapshot(snap)
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}

			if outPath == "-" {
				_, err := stdout.Write(encoded)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create export output dir: %w", err)
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newServeCmd builds `balans serve`.
func newServeCmd(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		addr        string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST and MCP APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.openRuntime(stderr)
			if err != nil {
				return err
			}
			defer rt.close()

			bind := strings.TrimSpace(addr)
			if bind == "" {
				bind = rt.cfg.Server.Addr
			}
			rt.logger.Info("starting server", "addr", bind, "api", apiEndpoint, "mcp", mcpEndpoint)
			return server.Run(cmd.Context(), server.Config{
				HTTPBind:      bind,
				APIEndpoint:   apiEndpoint,
				MCPEndpoint:   mcpEndpoint,
				ServerName:    "balans",
				ServerVersion: version,
			}, server.Dependencies{
				Analysis: common.NewServiceAdapter(rt.service),
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "/api/v1", "REST API mount path")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "/mcp", "MCP mount path")
	return cmd
}

// newPathsCmd builds `balans paths`.
func newPathsCmd(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{
				AppName: "balans",
				DevMode: opts.devMode,
			})
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(stdout, map[string]any{
					"dev_mode": opts.devMode,
					"config":   paths.ConfigPath,
					"data_dir": paths.DataDir,
					"db":       paths.DBPath,
				})
			}
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			return nil
		},
	}
}

// parseEvaluationTime parses the --at flag; empty means now (pipeline clock).
func parseEvaluationTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --at value %q: %w", raw, err)
	}
	return parsed, nil
}

// printResult renders one analysis result as JSON or human-readable tables.
func printResult(w io.Writer, result domain.AnalysisResult, jsonOut bool) error {
	if jsonOut {
		return printJSON(w, result)
	}

	_, _ = fmt.Fprintf(w, "Household %s, generated %s\n", result.HouseholdID,
		result.GeneratedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Data quality %.2f, complete %t, skipped records %d\n\n",
		result.DataQuality, result.Complete, result.SkippedRecordCount)

	renderLoadScores(w, result.PerPersonLoadScores)
	renderDiscrepancies(w, result.Discrepancies)
	renderEvidence(w, result.Evidence)
	return nil
}

func renderLoadScores(w io.Writer, scores []domain.LoadScore) {
	if len(scores) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Load")
	tw.AppendHeader(table.Row{"Person", "Total", "Multiplier", "Burnout Risk"})
	for _, score := range scores {
		tw.AppendRow(table.Row{
			score.PersonID,
			fmt.Sprintf("%.0f", score.TotalScore),
			fmt.Sprintf("%.2f", score.ContextualMultiplier),
			score.BurnoutRisk,
		})
	}
	tw.Render()
}

func renderDiscrepancies(w io.Writer, discrepancies []domain.Discrepancy) {
	if len(discrepancies) == 0 {
		_, _ = fmt.Fprintln(w, "No significant discrepancies.")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Discrepancies")
	tw.AppendHeader(table.Row{"Person", "Category", "Reported", "Actual", "Direction", "Significance"})
	for _, d := range discrepancies {
		tw.AppendRow(table.Row{
			d.PersonID,
			d.Category,
			fmt.Sprintf("%.2f", d.ReportedValue),
			fmt.Sprintf("%.2f", d.ActualValue),
			d.Direction,
			fmt.Sprintf("%.2f", d.Significance),
		})
	}
	tw.Render()
}

func renderEvidence(w io.Writer, items []domain.EvidenceItem) {
	if len(items) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Evidence")
	tw.AppendHeader(table.Row{"Type", "Strength", "Description"})
	for _, item := range items {
		tw.AppendRow(table.Row{item.Type, fmt.Sprintf("%.2f", item.Strength), item.Description})
	}
	tw.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
