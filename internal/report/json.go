// Package report turns finished runs into artifacts: JSON report files,
// step screenshots, and screencast-frame recordings.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"webrunner/internal/engine"
)

// JSONReporter writes one report file per run into the report directory.
type JSONReporter struct {
	dir string
	log *zap.Logger

	// now is swapped out in tests so filenames are deterministic.
	now func() time.Time
}

// NewJSONReporter builds a reporter writing into dir.
func NewJSONReporter(dir string, log *zap.Logger) *JSONReporter {
	return &JSONReporter{dir: dir, log: log, now: time.Now}
}

type reportDocument struct {
	Metadata    reportMetadata   `json:"report_metadata"`
	Summary     executionSummary `json:"execution_summary"`
	Scenarios   []scenarioReport `json:"scenarios"`
	Environment environmentInfo  `json:"environment"`
}

type reportMetadata struct {
	ReportType          string    `json:"report_type"`
	GeneratedAt         time.Time `json:"generated_at"`
	FrameworkVersion    string    `json:"framework_version"`
	ReportFormatVersion string    `json:"report_format_version"`
}

type executionSummary struct {
	ExecutionID     string        `json:"execution_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        float64       `json:"duration"`
	Status          engine.Status `json:"status"`
	TotalScenarios  int           `json:"total_scenarios"`
	PassedScenarios int           `json:"passed_scenarios"`
	FailedScenarios int           `json:"failed_scenarios"`
	SuccessRate     float64       `json:"success_rate"`
}

type scenarioReport struct {
	ScenarioName string        `json:"scenario_name"`
	ScenarioFile string        `json:"scenario_file"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     float64       `json:"duration"`
	Status       engine.Status `json:"status"`
	Error        string        `json:"error,omitempty"`
	VideoPath    string        `json:"video_path,omitempty"`
	TotalSteps   int           `json:"total_steps"`
	PassedSteps  int           `json:"passed_steps"`
	FailedSteps  int           `json:"failed_steps"`
	Steps        []stepReport  `json:"steps"`
}

type stepReport struct {
	StepID         int           `json:"step_id"`
	StepName       string        `json:"step_name"`
	Action         string        `json:"action"`
	Target         string        `json:"target,omitempty"`
	Value          string        `json:"value,omitempty"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       float64       `json:"duration"`
	Status         engine.Status `json:"status"`
	Error          string        `json:"error,omitempty"`
	ScreenshotPath string        `json:"screenshot_path,omitempty"`
}

type environmentInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	GoVersion    string `json:"go_version"`
	Hostname     string `json:"hostname,omitempty"`
}

// Generate writes the report file and returns its path.
func (r *JSONReporter) Generate(run *engine.RunOutcome) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	doc := r.document(run)
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	name := fmt.Sprintf("test_report_%s_%s.json", run.ExecutionID, r.now().Format("20060102_150405"))
	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	r.log.Info("json report generated", zap.String("path", path))
	return path, nil
}

func (r *JSONReporter) document(run *engine.RunOutcome) reportDocument {
	doc := reportDocument{
		Metadata: reportMetadata{
			ReportType:          "json",
			GeneratedAt:         r.now(),
			FrameworkVersion:    "1.0.0",
			ReportFormatVersion: "1.0",
		},
		Summary: executionSummary{
			ExecutionID:     run.ExecutionID,
			StartTime:       run.StartTime,
			EndTime:         run.EndTime,
			Duration:        run.Duration,
			Status:          run.Status,
			TotalScenarios:  run.TotalScenarios,
			PassedScenarios: run.PassedScenarios,
			FailedScenarios: run.FailedScenarios,
			SuccessRate:     successRate(run),
		},
		Scenarios:   make([]scenarioReport, 0, len(run.Scenarios)),
		Environment: currentEnvironment(),
	}

	for i := range run.Scenarios {
		doc.Scenarios = append(doc.Scenarios, scenarioDocument(&run.Scenarios[i]))
	}
	return doc
}

func scenarioDocument(s *engine.ScenarioOutcome) scenarioReport {
	rep := scenarioReport{
		ScenarioName: s.ScenarioName,
		ScenarioFile: s.ScenarioFile,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Duration:     s.Duration,
		Status:       s.Status,
		Error:        s.Error,
		VideoPath:    s.VideoPath,
		TotalSteps:   len(s.Steps),
		PassedSteps:  s.PassedSteps(),
		FailedSteps:  s.FailedSteps(),
		Steps:        make([]stepReport, 0, len(s.Steps)),
	}
	for _, step := range s.Steps {
		rep.Steps = append(rep.Steps, stepReport{
			StepID:         step.StepID,
			StepName:       step.StepName,
			Action:         step.Action,
			Target:         step.Target,
			Value:          step.Value,
			StartTime:      step.StartTime,
			EndTime:        step.EndTime,
			Duration:       step.Duration,
			Status:         step.Status,
			Error:          step.Error,
			ScreenshotPath: step.ScreenshotPath,
		})
	}
	return rep
}

// successRate is the percentage of scenarios that passed, rounded to two
// decimal places. Zero scenarios means zero, not a division fault.
func successRate(run *engine.RunOutcome) float64 {
	if run.TotalScenarios == 0 {
		return 0
	}
	rate := float64(run.PassedScenarios) / float64(run.TotalScenarios) * 100
	return math.Round(rate*100) / 100
}

func currentEnvironment() environmentInfo {
	host, _ := os.Hostname()
	return environmentInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		GoVersion:    runtime.Version(),
		Hostname:     host,
	}
}
