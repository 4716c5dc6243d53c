package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"webrunner/internal/validate"
)

// scenarioSchema is the semantic contract for scenario files. The action
// enum is injected at init so the schema and the Go vocabulary cannot drift.
const scenarioSchemaTemplate = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["scenario_info", "test_steps"],
  "properties": {
    "scenario_info": {
      "type": "object",
      "required": ["name", "description", "url"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "url": {"type": "string", "minLength": 1}
      }
    },
    "test_steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["step_id", "step_name", "action"],
        "properties": {
          "step_id": {"type": "integer", "minimum": 1},
          "step_name": {"type": "string", "minLength": 1},
          "action": {"enum": [%s]},
          "target": {"type": "string"},
          "value": {"type": "string"},
          "wait_time": {"type": "number", "minimum": 0},
          "screenshot": {"type": "boolean"}
        }
      }
    }
  }
}`

func scenarioSchemaJSON() string {
	names := make([]string, 0, len(Actions()))
	for _, a := range Actions() {
		names = append(names, fmt.Sprintf("%q", a))
	}
	return fmt.Sprintf(scenarioSchemaTemplate, strings.Join(names, ", "))
}

// ValidateFile runs the full pipeline on a scenario file: structural decode,
// JSON Schema, then domain rules. The definition is returned when the
// structural phase succeeds, even if later phases produced findings.
func ValidateFile(path string) (*Definition, []*validate.Finding) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, []*validate.Finding{{
			Phase:    validate.PhaseStructural,
			Message:  err.Error(),
			Severity: validate.SeverityError,
		}}
	}

	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, []*validate.Finding{{
			Phase:    validate.PhaseStructural,
			Message:  fmt.Sprintf("parse %s: %v", path, err),
			Severity: validate.SeverityError,
		}}
	}

	var findings []*validate.Finding

	sch, err := validate.Compile("scenario.json", scenarioSchemaJSON())
	if err != nil {
		findings = append(findings, &validate.Finding{
			Phase:    validate.PhaseSemantic,
			Message:  err.Error(),
			Severity: validate.SeverityError,
		})
		return &def, findings
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err == nil {
		findings = append(findings, validate.Semantic(sch, doc)...)
	}

	findings = append(findings, Validate(&def)...)
	return &def, findings
}

// Validate applies the domain rules that the schema cannot express.
func Validate(def *Definition) []*validate.Finding {
	var findings []*validate.Finding

	url := def.Info.URL
	if url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		findings = append(findings, &validate.Finding{
			Phase:    validate.PhaseDomain,
			Path:     "scenario_info/url",
			Message:  fmt.Sprintf("url must start with http:// or https://, got %q", url),
			Severity: validate.SeverityError,
		})
	}

	for i, step := range def.Steps {
		path := fmt.Sprintf("test_steps/%d", i)
		if step.StepID != i+1 {
			findings = append(findings, &validate.Finding{
				Phase:    validate.PhaseDomain,
				Path:     path + "/step_id",
				Message:  fmt.Sprintf("step_id must equal 1-based position %d, got %d", i+1, step.StepID),
				Severity: validate.SeverityError,
			})
		}
		if _, ok := ParseAction(string(step.Action)); !ok {
			findings = append(findings, &validate.Finding{
				Phase:    validate.PhaseDomain,
				Path:     path + "/action",
				Message:  fmt.Sprintf("unknown action %q", step.Action),
				Severity: validate.SeverityError,
			})
		}
	}
	return findings
}

// ValidateTestDataFile checks that a test-data file is a JSON object.
// A missing top-level "url" key is a warning, not an error.
func ValidateTestDataFile(path string) []*validate.Finding {
	raw, err := os.ReadFile(path)
	if err != nil {
		return []*validate.Finding{{
			Phase:    validate.PhaseStructural,
			Message:  err.Error(),
			Severity: validate.SeverityError,
		}}
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return []*validate.Finding{{
			Phase:    validate.PhaseStructural,
			Message:  fmt.Sprintf("test data must be a JSON object: %v", err),
			Severity: validate.SeverityError,
		}}
	}
	if _, ok := data["url"]; !ok {
		return []*validate.Finding{{
			Phase:    validate.PhaseDomain,
			Path:     "url",
			Message:  "test data has no top-level url key",
			Severity: validate.SeverityWarning,
		}}
	}
	return nil
}
