package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"webrunner/internal/config"
	"webrunner/internal/scenario"
	"webrunner/internal/testdata"
)

// Recording is the scenario-scoped capture collaborator. Start and Stop are
// best-effort; Stop must bound its own join so an unresponsive capture loop
// cannot hang the scenario.
type Recording interface {
	Start(scenarioName string) error
	Stop() (path string, err error)
}

// ScenarioRunner drives one scenario's steps through the interpreter and
// aggregates them into a ScenarioOutcome.
type ScenarioRunner struct {
	interp            *Interpreter
	recorder          Recording // nil when recording is disabled
	continueOnFailure bool
	envData           testdata.Data
	log               *zap.Logger
}

// NewScenarioRunner builds a scenario runner. recorder may be nil; envData
// is the optional environment overlay merged under each scenario's data.
func NewScenarioRunner(interp *Interpreter, recorder Recording, continueOnFailure bool, envData testdata.Data, log *zap.Logger) *ScenarioRunner {
	return &ScenarioRunner{
		interp:            interp,
		recorder:          recorder,
		continueOnFailure: continueOnFailure,
		envData:           envData,
		log:               log,
	}
}

// Run executes the referenced scenario. It never returns an error: step
// failures are recorded in step outcomes, and orchestration faults (file
// parse errors, panics) mark the scenario failed with error detail.
func (r *ScenarioRunner) Run(ctx context.Context, ref config.ScenarioRef) (out ScenarioOutcome) {
	start := time.Now()
	out = ScenarioOutcome{
		ScenarioName: ref.Name,
		ScenarioFile: ref.ScenarioFile,
		StartTime:    start,
		Status:       StatusRunning,
	}

	r.log.Info("executing scenario", zap.String("scenario", ref.Name))

	// Cleanup runs on every exit path: normal completion, early stop on
	// failure, and orchestration faults. Installed before the recorder
	// starts so a panicking recording collaborator is recovered here too.
	recording := false
	defer func() {
		if rec := recover(); rec != nil {
			out.Status = StatusFailed
			out.Error = fmt.Sprintf("scenario panicked: %v", rec)
			out.Traceback = string(debug.Stack())
		}
		if recording {
			path, err := r.recorder.Stop()
			if err != nil {
				r.log.Warn("recording stop failed", zap.String("scenario", ref.Name), zap.Error(err))
			}
			if path != "" {
				out.VideoPath = path
			}
		}
		end := time.Now()
		out.EndTime = end
		out.Duration = end.Sub(start).Seconds()
	}()

	if r.recorder != nil {
		if err := r.recorder.Start(ref.Name); err != nil {
			r.log.Warn("recording start failed", zap.String("scenario", ref.Name), zap.Error(err))
		} else {
			recording = true
		}
	}

	def, data, err := r.loadInputs(ref)
	if err != nil {
		fault := &OrchestrationError{Op: "load scenario inputs", Err: err}
		r.log.Error("scenario execution failed", zap.String("scenario", ref.Name), zap.Error(fault))
		out.Status = StatusFailed
		out.Error = fault.Error()
		out.Traceback = fmt.Sprintf("%+v", err)
		return
	}

	interrupted := false
	for _, step := range def.Steps {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		stepOut := r.interp.Execute(ctx, step, data)
		out.Steps = append(out.Steps, stepOut)

		if stepOut.Status == StatusFailed && !r.continueOnFailure {
			break
		}
	}

	// An interrupted scenario never reports a pass for steps it skipped.
	if interrupted {
		out.Status = StatusFailed
		out.Error = fmt.Sprintf("scenario interrupted: %v", ctx.Err())
		return
	}
	if out.FailedSteps() > 0 {
		out.Status = StatusFailed
	} else {
		out.Status = StatusPassed
	}
	return
}

func (r *ScenarioRunner) loadInputs(ref config.ScenarioRef) (*scenario.Definition, testdata.Data, error) {
	def, err := scenario.Load(ref.ScenarioFile)
	if err != nil {
		return nil, nil, err
	}
	data, err := testdata.Load(ref.TestDataFile)
	if err != nil {
		return nil, nil, err
	}
	if r.envData != nil {
		data = testdata.Merge(data, r.envData)
	}
	return def, data, nil
}
