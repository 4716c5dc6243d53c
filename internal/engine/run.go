package engine

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webrunner/internal/browser"
	"webrunner/internal/config"
	"webrunner/internal/testdata"
	"webrunner/internal/validate"
)

// HandleProvider supplies the single browser handle for a run. Release must
// be idempotent: releasing a never-acquired or already-released provider is
// a no-op.
type HandleProvider interface {
	Acquire(ctx context.Context) (browser.Handle, error)
	Release()
}

// Reporter turns a finished run into a report artifact. Best-effort: a
// reporter error never changes the run's status.
type Reporter interface {
	Generate(run *RunOutcome) (path string, err error)
}

// RunSink records a finished run durably (run history). Best-effort.
type RunSink interface {
	Record(run *RunOutcome, reportPath string) error
}

// RecorderFactory builds the per-run recording collaborator once the
// browser handle exists.
type RecorderFactory func(h browser.Handle) Recording

// ProgressFunc receives (index, total, scenarioName) before each scenario.
type ProgressFunc func(index, total int, name string)

// Runner is the run orchestrator: it validates configuration, owns the
// browser handle for the whole run, drives scenarios sequentially, and
// triggers reporting collaborators on completion.
type Runner struct {
	cfg      *config.Config
	provider HandleProvider
	log      *zap.Logger

	reporters   []Reporter
	history     RunSink
	screenshots StepScreenshotter
	newRecorder RecorderFactory

	mu      sync.Mutex
	outcome *RunOutcome
	stopped bool
}

// NewRunner builds a run orchestrator.
func NewRunner(cfg *config.Config, provider HandleProvider, log *zap.Logger) *Runner {
	return &Runner{cfg: cfg, provider: provider, log: log}
}

// AddReporter registers a report-generation collaborator.
func (r *Runner) AddReporter(rep Reporter) { r.reporters = append(r.reporters, rep) }

// SetHistory registers the run-history sink.
func (r *Runner) SetHistory(sink RunSink) { r.history = sink }

// SetScreenshotter registers the step screenshot collaborator.
func (r *Runner) SetScreenshotter(s StepScreenshotter) { r.screenshots = s }

// SetRecorderFactory registers the recording collaborator factory, used only
// when video recording is enabled in the configuration.
func (r *Runner) SetRecorderFactory(f RecorderFactory) { r.newRecorder = f }

// Run executes all enabled scenarios sequentially. It never returns a
// non-nil error alongside a nil outcome and never panics: the worst case is
// an outcome with status error and a message.
func (r *Runner) Run(ctx context.Context, progress ProgressFunc) (out *RunOutcome) {
	start := time.Now()
	out = &RunOutcome{
		ExecutionID: "exec_" + uuid.NewString(),
		StartTime:   start,
		Status:      StatusRunning,
	}

	r.mu.Lock()
	r.outcome = out
	r.stopped = false
	r.mu.Unlock()

	r.log.Info("starting run", zap.String("execution_id", out.ExecutionID))

	defer func() {
		if rec := recover(); rec != nil {
			r.setErrorStatus(out, fmt.Sprintf("run panicked: %v", rec))
			r.log.Error("run panicked", zap.String("stack", string(debug.Stack())))
		}

		// Cleanup is unconditional; the provider tolerates a handle that a
		// concurrent Stop already tore down.
		r.provider.Release()

		end := time.Now()
		out.EndTime = end
		out.Duration = end.Sub(start).Seconds()
		r.promoteRunning(out)

		r.generateReports(out)
		r.log.Info("run finished",
			zap.String("execution_id", out.ExecutionID),
			zap.String("status", string(out.Status)),
			zap.Int("passed", out.PassedScenarios),
			zap.Int("failed", out.FailedScenarios))
	}()

	// Fail fast: nothing is acquired until configuration and every
	// referenced file validates.
	findings := append(r.cfg.Validate(), r.cfg.ValidateFiles()...)
	if validate.HasErrors(findings) {
		r.setErrorStatus(out, summarize(findings))
		return
	}
	for _, f := range findings {
		r.log.Warn("validation warning", zap.String("path", f.Path), zap.String("message", f.Message))
	}

	selected := r.selectScenarios()
	out.TotalScenarios = len(selected)
	if len(selected) == 0 {
		r.log.Warn("no scenarios marked for execution")
		return
	}

	var envData testdata.Data
	if r.cfg.EnvironmentFile != "" {
		var err error
		envData, err = testdata.Load(r.cfg.EnvironmentFile)
		if err != nil {
			r.setErrorStatus(out, (&OrchestrationError{Op: "load environment data", Err: err}).Error())
			return
		}
	}

	handle, err := r.provider.Acquire(ctx)
	if err != nil {
		r.setErrorStatus(out, (&OrchestrationError{Op: "acquire browser handle", Err: err}).Error())
		return
	}

	interp := NewInterpreter(handle, r.cfg.Framework, r.screenshots, r.log)
	var recorder Recording
	if r.cfg.Framework.VideoRecording && r.newRecorder != nil {
		recorder = r.newRecorder(handle)
	}
	scenarios := NewScenarioRunner(interp, recorder, r.cfg.ContinueOnFailure, envData, r.log)

	for i, ref := range selected {
		if r.isStopped() || ctx.Err() != nil {
			break
		}
		if progress != nil {
			progress(i, len(selected), ref.Name)
		}
		scenarioOut := scenarios.Run(ctx, ref)
		out.Scenarios = append(out.Scenarios, scenarioOut)
		if scenarioOut.Status == StatusPassed {
			out.PassedScenarios++
		} else {
			out.FailedScenarios++
		}
	}
	return
}

// Stop requests a graceful stop from outside the run loop. It is safe at
// any point of the lifecycle: before a run or after completion it is a
// no-op; mid-run it marks the outcome stopped and tears down the handle, so
// the loop halts at the next scenario boundary and in-flight steps fail
// against the torn-down handle.
func (r *Runner) Stop() {
	r.mu.Lock()
	out := r.outcome
	if out == nil || out.Status != StatusRunning {
		r.mu.Unlock()
		return
	}
	out.Status = StatusStopped
	r.stopped = true
	r.mu.Unlock()

	r.log.Info("stop requested", zap.String("execution_id", out.ExecutionID))
	r.provider.Release()
}

// Outcome returns the current (possibly in-flight) run outcome.
func (r *Runner) Outcome() *RunOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

func (r *Runner) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// setErrorStatus records a run-level fault unless the run was already
// stopped from outside.
func (r *Runner) setErrorStatus(out *RunOutcome, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if out.Status == StatusRunning {
		out.Status = StatusError
	}
	if out.Error == "" {
		out.Error = msg
	}
	r.log.Error("run failed", zap.String("error", msg))
}

func (r *Runner) promoteRunning(out *RunOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if out.Status == StatusRunning {
		out.Status = StatusCompleted
	}
}

// selectScenarios snapshots the enabled scenarios sorted by ascending
// priority; a missing priority sorts after every explicit one. The snapshot
// is not re-evaluated mid-run.
func (r *Runner) selectScenarios() []config.ScenarioRef {
	var selected []config.ScenarioRef
	for _, ref := range r.cfg.Scenarios {
		if ref.Enabled() {
			selected = append(selected, ref)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return priorityOf(selected[i]) < priorityOf(selected[j])
	})
	return selected
}

func priorityOf(ref config.ScenarioRef) int {
	if ref.Priority == nil {
		return math.MaxInt
	}
	return *ref.Priority
}

func (r *Runner) generateReports(out *RunOutcome) {
	reportPath := ""
	for _, rep := range r.reporters {
		path, err := rep.Generate(out)
		if err != nil {
			r.log.Error("report generation failed", zap.Error(err))
			continue
		}
		if reportPath == "" {
			reportPath = path
		}
		r.log.Info("report generated", zap.String("path", path))
	}
	if r.history != nil {
		if err := r.history.Record(out, reportPath); err != nil {
			r.log.Error("run history record failed", zap.Error(err))
		}
	}
}

func summarize(findings []*validate.Finding) string {
	errs := 0
	first := ""
	for _, f := range findings {
		if f.Severity != validate.SeverityError {
			continue
		}
		if first == "" {
			first = f.Error()
		}
		errs++
	}
	if errs == 1 {
		return "configuration validation failed: " + first
	}
	return fmt.Sprintf("configuration validation failed: %d errors, first: %s", errs, first)
}
