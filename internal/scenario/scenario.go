// Package scenario models declarative test scenarios: an identity block and
// an ordered list of steps drawn from a closed action vocabulary.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
)

// Info identifies a scenario.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Step is one declarative step. StepID must equal the step's 1-based
// position in the scenario.
type Step struct {
	StepID     int     `json:"step_id"`
	StepName   string  `json:"step_name"`
	Action     Action  `json:"action"`
	Target     string  `json:"target,omitempty"`
	Value      string  `json:"value,omitempty"`
	WaitTime   float64 `json:"wait_time,omitempty"`
	Screenshot bool    `json:"screenshot,omitempty"`
}

// Definition is a fully parsed scenario file. Immutable once loaded.
type Definition struct {
	Info  Info   `json:"scenario_info"`
	Steps []Step `json:"test_steps"`
}

// Load decodes a scenario JSON file. This is the structural phase only;
// callers wanting the full pipeline use ValidateFile.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &def, nil
}
