// Package validate holds the shared three-phase validation vocabulary:
// structural (decode), semantic (JSON Schema), and domain (Go rules).
package validate

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Severity levels. Warnings are reported but never fail validation.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Validation phases, in pipeline order.
const (
	PhaseStructural = "structural"
	PhaseSemantic   = "semantic"
	PhaseDomain     = "domain"
)

// Finding is a single validation finding with location context.
type Finding struct {
	Phase    string `json:"phase"`
	Path     string `json:"path"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func (f *Finding) Error() string {
	return fmt.Sprintf("[%s] %s: %s", f.Phase, f.Path, f.Message)
}

// HasErrors reports whether any finding is error-severity.
func HasErrors(findings []*Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Compile parses and compiles an embedded JSON Schema document.
func Compile(name, schemaJSON string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return sch, nil
}

// Semantic validates a decoded JSON instance against a compiled schema and
// flattens the result into semantic-phase findings.
func Semantic(sch *jsonschema.Schema, instance any) []*Finding {
	err := sch.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []*Finding{{
			Phase:    PhaseSemantic,
			Message:  err.Error(),
			Severity: SeverityError,
		}}
	}
	var findings []*Finding
	flatten(ve, &findings)
	return findings
}

func flatten(ve *jsonschema.ValidationError, out *[]*Finding) {
	if len(ve.Causes) == 0 {
		*out = append(*out, &Finding{
			Phase:    PhaseSemantic,
			Path:     "/" + strings.Join(ve.InstanceLocation, "/"),
			Message:  fmt.Sprintf("%v", ve.ErrorKind),
			Severity: SeverityError,
		})
		return
	}
	for _, cause := range ve.Causes {
		flatten(cause, out)
	}
}
