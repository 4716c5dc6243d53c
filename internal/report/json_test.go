package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webrunner/internal/engine"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func sampleRun() *engine.RunOutcome {
	start := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	return &engine.RunOutcome{
		ExecutionID:     "exec_abc123",
		StartTime:       start,
		EndTime:         end,
		Duration:        90,
		Status:          engine.StatusCompleted,
		TotalScenarios:  3,
		PassedScenarios: 2,
		FailedScenarios: 1,
		Scenarios: []engine.ScenarioOutcome{
			{
				ScenarioName: "login",
				ScenarioFile: "scenarios/login.json",
				StartTime:    start,
				EndTime:      start.Add(30 * time.Second),
				Duration:     30,
				Status:       engine.StatusFailed,
				Steps: []engine.StepOutcome{
					{StepID: 1, StepName: "open", Action: "navigate", Value: "https://x.test", Status: engine.StatusPassed},
					{StepID: 2, StepName: "sign in", Action: "click", Target: "id:submit", Status: engine.StatusFailed,
						Error: "element not found: id:submit", ScreenshotPath: "shots/step_02.png"},
				},
			},
		},
	}
}

func TestGenerateWritesReportFile(t *testing.T) {
	dir := t.TempDir()
	rep := NewJSONReporter(dir, zap.NewNop())
	rep.now = fixedNow

	path, err := rep.Generate(sampleRun())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_report_exec_abc123_20260102_030405.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	wantSummary := map[string]any{
		"execution_id":     "exec_abc123",
		"start_time":       "2026-01-02T03:00:00Z",
		"end_time":         "2026-01-02T03:01:30Z",
		"duration":         float64(90),
		"status":           "completed",
		"total_scenarios":  float64(3),
		"passed_scenarios": float64(2),
		"failed_scenarios": float64(1),
		"success_rate":     66.67,
	}
	if diff := cmp.Diff(wantSummary, doc["execution_summary"]); diff != "" {
		t.Errorf("execution_summary mismatch (-want +got):\n%s", diff)
	}

	meta, ok := doc["report_metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json", meta["report_type"])
	assert.Equal(t, "2026-01-02T03:04:05Z", meta["generated_at"])
}

func TestGenerateScenarioStepTotals(t *testing.T) {
	dir := t.TempDir()
	rep := NewJSONReporter(dir, zap.NewNop())
	rep.now = fixedNow

	path, err := rep.Generate(sampleRun())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Scenarios []struct {
			ScenarioName string `json:"scenario_name"`
			Status       string `json:"status"`
			TotalSteps   int    `json:"total_steps"`
			PassedSteps  int    `json:"passed_steps"`
			FailedSteps  int    `json:"failed_steps"`
			Steps        []struct {
				StepID         int    `json:"step_id"`
				Error          string `json:"error"`
				ScreenshotPath string `json:"screenshot_path"`
			} `json:"steps"`
		} `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))

	require.Len(t, doc.Scenarios, 1)
	sc := doc.Scenarios[0]
	assert.Equal(t, "login", sc.ScenarioName)
	assert.Equal(t, "failed", sc.Status)
	assert.Equal(t, 2, sc.TotalSteps)
	assert.Equal(t, 1, sc.PassedSteps)
	assert.Equal(t, 1, sc.FailedSteps)
	require.Len(t, sc.Steps, 2)
	assert.Equal(t, "element not found: id:submit", sc.Steps[1].Error)
	assert.Equal(t, "shots/step_02.png", sc.Steps[1].ScreenshotPath)
}

func TestSuccessRate(t *testing.T) {
	assert.Zero(t, successRate(&engine.RunOutcome{}))
	assert.Equal(t, 100.0, successRate(&engine.RunOutcome{TotalScenarios: 4, PassedScenarios: 4}))
	assert.Equal(t, 33.33, successRate(&engine.RunOutcome{TotalScenarios: 3, PassedScenarios: 1}))
}

func TestGenerateCreatesReportDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	rep := NewJSONReporter(dir, zap.NewNop())
	rep.now = fixedNow

	path, err := rep.Generate(&engine.RunOutcome{ExecutionID: "exec_x", Status: engine.StatusCompleted})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
