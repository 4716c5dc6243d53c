package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"webrunner/internal/scenario"
	"webrunner/internal/validate"
)

const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["framework_config", "reporting", "test_scenarios"],
  "properties": {
    "framework_config": {
      "type": "object",
      "required": ["browser", "implicit_wait", "explicit_wait"],
      "properties": {
        "browser": {"type": "string"},
        "implicit_wait": {"type": "number", "exclusiveMinimum": 0},
        "explicit_wait": {"type": "number", "exclusiveMinimum": 0},
        "screenshot_on_step": {"type": "boolean"},
        "video_recording": {"type": "boolean"}
      }
    },
    "reporting": {
      "type": "object",
      "required": ["json_reports", "word_reports", "report_directory", "screenshot_directory"],
      "properties": {
        "json_reports": {"type": "boolean"},
        "word_reports": {"type": "boolean"},
        "report_directory": {"type": "string", "minLength": 1},
        "screenshot_directory": {"type": "string", "minLength": 1}
      }
    },
    "test_scenarios": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "scenario_file", "test_data_file", "execute"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "scenario_file": {"type": "string", "minLength": 1},
          "test_data_file": {"type": "string", "minLength": 1},
          "execute": {"type": "string"},
          "priority": {"type": "integer"}
        }
      }
    },
    "continue_on_failure": {"type": "boolean"}
  }
}`

// Validate runs the semantic and domain phases against the loaded config.
// File-existence checks live in ValidateFiles so these phases stay pure.
func (c *Config) Validate() []*validate.Finding {
	var findings []*validate.Finding

	sch, err := validate.Compile("config.json", configSchema)
	if err != nil {
		return []*validate.Finding{{
			Phase:    validate.PhaseSemantic,
			Message:  err.Error(),
			Severity: validate.SeverityError,
		}}
	}

	// The struct round-trips through JSON so YAML-sourced configs validate
	// against the same schema.
	raw, err := json.Marshal(c)
	if err != nil {
		return []*validate.Finding{{
			Phase:    validate.PhaseSemantic,
			Message:  fmt.Sprintf("marshal for schema validation: %v", err),
			Severity: validate.SeverityError,
		}}
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err == nil {
		findings = append(findings, validate.Semantic(sch, doc)...)
	}

	browser := strings.ToLower(c.Framework.Browser)
	if browser != "chrome" && browser != "firefox" {
		findings = append(findings, &validate.Finding{
			Phase:    validate.PhaseDomain,
			Path:     "framework_config/browser",
			Message:  fmt.Sprintf("browser must be chrome or firefox, got %q", c.Framework.Browser),
			Severity: validate.SeverityError,
		})
	}

	for i, ref := range c.Scenarios {
		exec := strings.ToLower(strings.TrimSpace(ref.Execute))
		if exec != "y" && exec != "n" {
			findings = append(findings, &validate.Finding{
				Phase:    validate.PhaseDomain,
				Path:     fmt.Sprintf("test_scenarios/%d/execute", i),
				Message:  fmt.Sprintf("execute must be \"y\" or \"n\", got %q", ref.Execute),
				Severity: validate.SeverityError,
			})
		}
	}
	return findings
}

// ValidateFiles checks that every referenced scenario and test-data file
// exists and itself validates. This is the fail-fast gate the run
// orchestrator applies before acquiring any browser resource.
func (c *Config) ValidateFiles() []*validate.Finding {
	var findings []*validate.Finding

	for i, ref := range c.Scenarios {
		path := fmt.Sprintf("test_scenarios/%d", i)
		if _, err := os.Stat(ref.ScenarioFile); err != nil {
			findings = append(findings, &validate.Finding{
				Phase:    validate.PhaseDomain,
				Path:     path + "/scenario_file",
				Message:  fmt.Sprintf("scenario file not found: %s", ref.ScenarioFile),
				Severity: validate.SeverityError,
			})
		} else if _, scenarioFindings := scenario.ValidateFile(ref.ScenarioFile); len(scenarioFindings) > 0 {
			findings = append(findings, scenarioFindings...)
		}

		if _, err := os.Stat(ref.TestDataFile); err != nil {
			findings = append(findings, &validate.Finding{
				Phase:    validate.PhaseDomain,
				Path:     path + "/test_data_file",
				Message:  fmt.Sprintf("test data file not found: %s", ref.TestDataFile),
				Severity: validate.SeverityError,
			})
		} else {
			findings = append(findings, scenario.ValidateTestDataFile(ref.TestDataFile)...)
		}
	}

	if c.EnvironmentFile != "" {
		if _, err := os.Stat(c.EnvironmentFile); err != nil {
			findings = append(findings, &validate.Finding{
				Phase:    validate.PhaseDomain,
				Path:     "environment_file",
				Message:  fmt.Sprintf("environment file not found: %s", c.EnvironmentFile),
				Severity: validate.SeverityError,
			})
		}
	}
	return findings
}
