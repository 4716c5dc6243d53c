// Package config loads and validates the master run configuration. Files may
// be JSON or YAML, detected by extension.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master run configuration.
type Config struct {
	Framework         FrameworkConfig `json:"framework_config" yaml:"framework_config"`
	Reporting         ReportingConfig `json:"reporting" yaml:"reporting"`
	Video             VideoConfig     `json:"video_config" yaml:"video_config"`
	Scenarios         []ScenarioRef   `json:"test_scenarios" yaml:"test_scenarios"`
	ContinueOnFailure bool            `json:"continue_on_failure" yaml:"continue_on_failure"`
	// EnvironmentFile optionally points at a JSON overlay merged under each
	// scenario's own test data.
	EnvironmentFile string `json:"environment_file,omitempty" yaml:"environment_file,omitempty"`
}

// FrameworkConfig configures the browser and timing model.
type FrameworkConfig struct {
	Browser          string `json:"browser" yaml:"browser"` // chrome, firefox
	Headless         bool   `json:"headless" yaml:"headless"`
	ImplicitWait     int    `json:"implicit_wait" yaml:"implicit_wait"`   // seconds
	ExplicitWait     int    `json:"explicit_wait" yaml:"explicit_wait"`   // seconds
	ScreenshotOnStep bool   `json:"screenshot_on_step" yaml:"screenshot_on_step"`
	VideoRecording   bool   `json:"video_recording" yaml:"video_recording"`
	WindowWidth      int    `json:"window_width,omitempty" yaml:"window_width,omitempty"`
	WindowHeight     int    `json:"window_height,omitempty" yaml:"window_height,omitempty"`
}

// ReportingConfig configures report artifacts.
type ReportingConfig struct {
	JSONReports         bool   `json:"json_reports" yaml:"json_reports"`
	WordReports         bool   `json:"word_reports" yaml:"word_reports"`
	ReportDirectory     string `json:"report_directory" yaml:"report_directory"`
	ScreenshotDirectory string `json:"screenshot_directory" yaml:"screenshot_directory"`
	VideoDirectory      string `json:"video_directory,omitempty" yaml:"video_directory,omitempty"`
	HistoryDatabase     string `json:"history_database,omitempty" yaml:"history_database,omitempty"`
}

// VideoConfig configures the screencast recorder.
type VideoConfig struct {
	FPS     int `json:"fps,omitempty" yaml:"fps,omitempty"`
	Quality int `json:"quality,omitempty" yaml:"quality,omitempty"` // JPEG quality 1-100
}

// ScenarioRef points at one scenario and its test data. Priority nil sorts
// after every scenario that has one.
type ScenarioRef struct {
	Name         string `json:"name" yaml:"name"`
	ScenarioFile string `json:"scenario_file" yaml:"scenario_file"`
	TestDataFile string `json:"test_data_file" yaml:"test_data_file"`
	Execute      string `json:"execute" yaml:"execute"` // "y" or "n"
	Priority     *int   `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Enabled reports whether the scenario is flagged for execution.
func (r ScenarioRef) Enabled() bool {
	return strings.EqualFold(strings.TrimSpace(r.Execute), "y")
}

// DefaultConfig returns the defaults applied underneath a loaded file.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Browser:      "chrome",
			ImplicitWait: 10,
			ExplicitWait: 30,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Reporting: ReportingConfig{
			JSONReports:         true,
			ReportDirectory:     "reports",
			ScreenshotDirectory: "screenshots",
			VideoDirectory:      "videos",
		},
		Video: VideoConfig{FPS: 10, Quality: 60},
	}
}

// Load reads a master configuration file. Missing fields fall back to
// DefaultConfig values.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// ImplicitWaitDuration returns the implicit wait as a duration.
func (f FrameworkConfig) ImplicitWaitDuration() time.Duration {
	return time.Duration(f.ImplicitWait) * time.Second
}

// ExplicitWaitDuration returns the explicit wait as a duration. Every
// blocking browser call is bounded by this.
func (f FrameworkConfig) ExplicitWaitDuration() time.Duration {
	return time.Duration(f.ExplicitWait) * time.Second
}
