// webrunner executes declarative browser UI test scenarios and produces
// JSON reports, screenshots, and screencast recordings.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"webrunner/internal/browser"
	"webrunner/internal/config"
	"webrunner/internal/engine"
	"webrunner/internal/history"
	"webrunner/internal/report"
	"webrunner/internal/validate"
)

const version = "1.0.0"

var (
	cfgPath string
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "webrunner",
	Short: "Declarative browser UI test runner",
	Long: `webrunner drives a browser through JSON test scenarios: declarative
steps with strategy-prefixed element targets and ${variable} substitution
from per-scenario test data, aggregated into step, scenario, and run
outcomes with JSON reports, screenshots, and screencast recordings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute all enabled scenarios from the configuration",
	RunE:  runScenarios,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and every referenced scenario file",
	RunE:  validateConfig,
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List configured scenarios with execution flag and priority",
	RunE:  listScenarios,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the history database",
	RunE:  showHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the webrunner version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "webrunner %s\n", version)
	},
}

var (
	flagHeadless          bool
	flagContinueOnFailure bool
	flagWatch             bool
	flagHistoryLimit      int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config/master_config.json", "path to the master configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run the browser headless (overrides configuration)")
	runCmd.Flags().BoolVar(&flagContinueOnFailure, "continue-on-failure", false, "keep executing steps after a failure (overrides configuration)")

	validateCmd.Flags().BoolVar(&flagWatch, "watch", false, "re-validate whenever the configuration or a referenced file changes")

	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 10, "number of runs to show")

	rootCmd.AddCommand(runCmd, validateCmd, scenariosCmd, historyCmd, versionCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Framework.Headless = flagHeadless
	}
	if cmd.Flags().Changed("continue-on-failure") {
		cfg.ContinueOnFailure = flagContinueOnFailure
	}

	runner := engine.NewRunner(cfg, browser.NewManager(cfg.Framework, logger), logger)

	if cfg.Reporting.JSONReports {
		runner.AddReporter(report.NewJSONReporter(cfg.Reporting.ReportDirectory, logger))
	}
	if cfg.Reporting.WordReports {
		logger.Warn("word reports are not supported, skipping")
	}

	shots, err := report.NewScreenshots(cfg.Reporting.ScreenshotDirectory, logger)
	if err != nil {
		return err
	}
	runner.SetScreenshotter(shots)

	if cfg.Framework.VideoRecording {
		runner.SetRecorderFactory(func(h browser.Handle) engine.Recording {
			rec, err := report.NewRecorder(h, cfg.Reporting.VideoDirectory, cfg.Video, logger)
			if err != nil {
				logger.Warn("video recording unavailable", zap.Error(err))
				return nil
			}
			return rec
		})
	}

	if cfg.Reporting.HistoryDatabase != "" {
		store, err := history.Open(cfg.Reporting.HistoryDatabase)
		if err != nil {
			logger.Warn("run history unavailable", zap.Error(err))
		} else {
			defer store.Close()
			runner.SetHistory(store)
		}
	}

	// SIGINT/SIGTERM requests a graceful stop: the run halts at the next
	// scenario boundary and reports what finished.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		<-sig
		fmt.Fprintln(cmd.OutOrStdout(), "stop requested, finishing current scenario...")
		runner.Stop()
	}()

	out := runner.Run(cmd.Context(), func(index, total int, name string) {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s\n", index+1, total, name)
	})

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s  status=%s  scenarios=%d passed=%d failed=%d  duration=%.1fs\n",
		out.ExecutionID, out.Status, out.TotalScenarios, out.PassedScenarios, out.FailedScenarios, out.Duration)
	if out.Error != "" {
		fmt.Fprintln(cmd.OutOrStdout(), out.Error)
	}

	if out.Status != engine.StatusCompleted || out.FailedScenarios > 0 {
		return fmt.Errorf("run finished with status %s (%d of %d scenarios failed)",
			out.Status, out.FailedScenarios, out.TotalScenarios)
	}
	return nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if err := validateOnce(cmd); err != nil && !flagWatch {
		return err
	}
	if !flagWatch {
		return nil
	}
	return watchAndValidate(cmd)
}

// validateOnce runs the full validation pipeline and prints every finding.
func validateOnce(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	findings := append(cfg.Validate(), cfg.ValidateFiles()...)
	for _, f := range findings {
		fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s\n", f.Severity, f.Error())
	}
	if validate.HasErrors(findings) {
		return fmt.Errorf("validation failed with %d findings", len(findings))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "configuration valid")
	return nil
}

func listScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	refs := append([]config.ScenarioRef(nil), cfg.Scenarios...)
	sort.SliceStable(refs, func(i, j int) bool {
		return priorityLabelOrder(refs[i]) < priorityLabelOrder(refs[j])
	})

	for _, ref := range refs {
		priority := "-"
		if ref.Priority != nil {
			priority = fmt.Sprintf("%d", *ref.Priority)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-30s execute=%s priority=%-3s %s\n",
			ref.Name, ref.Execute, priority, ref.ScenarioFile)
	}
	return nil
}

func priorityLabelOrder(ref config.ScenarioRef) int {
	if ref.Priority == nil {
		return int(^uint(0) >> 1)
	}
	return *ref.Priority
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Reporting.HistoryDatabase == "" {
		return fmt.Errorf("no history_database configured in %s", cfgPath)
	}

	store, err := history.Open(cfg.Reporting.HistoryDatabase)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s  status=%-9s total=%d passed=%d failed=%d  %s\n",
			e.ExecutionID, e.StartedAt.Format("2006-01-02 15:04:05"),
			e.Status, e.Total, e.Passed, e.Failed, e.ReportPath)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
