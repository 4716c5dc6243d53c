// Package engine interprets scenario steps against a live browser handle and
// orchestrates scenario and run execution into nested outcome records.
package engine

import "time"

// Status is the lifecycle state of a step, scenario, or run outcome.
type Status string

const (
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"

	// Run-level terminal states.
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusStopped   Status = "stopped"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

// StepOutcome records one executed step. Finalized exactly once; never
// mutated afterwards.
type StepOutcome struct {
	StepID         int       `json:"step_id"`
	StepName       string    `json:"step_name"`
	Action         string    `json:"action"`
	Target         string    `json:"target,omitempty"` // post-substitution
	Value          string    `json:"value,omitempty"`  // post-substitution
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Duration       float64   `json:"duration"` // seconds
	Status         Status    `json:"status"`
	Error          string    `json:"error,omitempty"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
}

// ScenarioOutcome aggregates the step outcomes of one scenario run. Steps
// may be a strict prefix of the definition when execution stopped early.
type ScenarioOutcome struct {
	ScenarioName string        `json:"scenario_name"`
	ScenarioFile string        `json:"scenario_file"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     float64       `json:"duration"`
	Steps        []StepOutcome `json:"steps"`
	Status       Status        `json:"status"`
	Error        string        `json:"error,omitempty"`
	Traceback    string        `json:"traceback,omitempty"`
	VideoPath    string        `json:"video_path,omitempty"`
}

// PassedSteps counts steps with status passed.
func (s *ScenarioOutcome) PassedSteps() int {
	n := 0
	for _, step := range s.Steps {
		if step.Status == StatusPassed {
			n++
		}
	}
	return n
}

// FailedSteps counts steps with status failed.
func (s *ScenarioOutcome) FailedSteps() int {
	n := 0
	for _, step := range s.Steps {
		if step.Status == StatusFailed {
			n++
		}
	}
	return n
}

// RunOutcome is the top-level record of one full execution.
type RunOutcome struct {
	ExecutionID     string            `json:"execution_id"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	Duration        float64           `json:"duration"`
	Scenarios       []ScenarioOutcome `json:"scenarios"`
	Status          Status            `json:"status"`
	Error           string            `json:"error,omitempty"`
	TotalScenarios  int               `json:"total_scenarios"`
	PassedScenarios int               `json:"passed_scenarios"`
	FailedScenarios int               `json:"failed_scenarios"`
}
