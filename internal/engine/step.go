package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"webrunner/internal/browser"
	"webrunner/internal/config"
	"webrunner/internal/locator"
	"webrunner/internal/scenario"
	"webrunner/internal/testdata"
)

// StepScreenshotter captures a screenshot artifact for a finished step.
type StepScreenshotter interface {
	CaptureStep(ctx context.Context, h browser.Handle, stepID int, stepName string, status Status) (string, error)
}

// Interpreter executes single steps against the browser handle. Step errors
// of any kind are absorbed into the StepOutcome; Execute never returns one.
type Interpreter struct {
	handle      browser.Handle
	cfg         config.FrameworkConfig
	screenshots StepScreenshotter
	log         *zap.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewInterpreter builds a step interpreter. screenshots may be nil.
func NewInterpreter(handle browser.Handle, cfg config.FrameworkConfig, screenshots StepScreenshotter, log *zap.Logger) *Interpreter {
	return &Interpreter{
		handle:      handle,
		cfg:         cfg,
		screenshots: screenshots,
		log:         log,
		sleep:       time.Sleep,
	}
}

// Execute runs one step: substitute variables, dispatch the action, apply
// the post-step wait, capture a screenshot when warranted, and finalize
// timestamps on every exit path.
func (it *Interpreter) Execute(ctx context.Context, step scenario.Step, data testdata.Data) StepOutcome {
	start := time.Now()

	target, value := it.substitute(step, data)
	out := StepOutcome{
		StepID:    step.StepID,
		StepName:  step.StepName,
		Action:    string(step.Action),
		Target:    target,
		Value:     value,
		StartTime: start,
		Status:    StatusRunning,
	}

	it.log.Info("executing step",
		zap.Int("step_id", step.StepID),
		zap.String("step_name", step.StepName),
		zap.String("action", string(step.Action)))

	err := it.dispatch(ctx, step.Action, target, value)

	// The post-step wait applies regardless of outcome and counts toward
	// the step duration.
	if step.WaitTime > 0 {
		it.sleep(time.Duration(step.WaitTime * float64(time.Second)))
	}

	if err != nil {
		out.Status = StatusFailed
		out.Error = err.Error()
		it.log.Error("step failed",
			zap.Int("step_id", step.StepID),
			zap.String("step_name", step.StepName),
			zap.Error(err))
	} else {
		out.Status = StatusPassed
	}

	it.captureScreenshot(ctx, step, &out)

	end := time.Now()
	out.EndTime = end
	out.Duration = end.Sub(start).Seconds()
	return out
}

func (it *Interpreter) substitute(step scenario.Step, data testdata.Data) (target, value string) {
	var misses []string
	target, m1 := testdata.Substitute(step.Target, data)
	value, m2 := testdata.Substitute(step.Value, data)
	misses = append(misses, m1...)
	misses = append(misses, m2...)
	for _, path := range misses {
		it.log.Warn("variable not found in test data",
			zap.Int("step_id", step.StepID),
			zap.String("variable", path))
	}
	return target, value
}

func (it *Interpreter) captureScreenshot(ctx context.Context, step scenario.Step, out *StepOutcome) {
	if it.screenshots == nil {
		return
	}
	if !step.Screenshot && out.Status != StatusFailed && !it.cfg.ScreenshotOnStep {
		return
	}
	path, err := it.screenshots.CaptureStep(ctx, it.handle, out.StepID, out.StepName, out.Status)
	if err != nil {
		// Capture failure never turns a passing step into a failing one.
		it.log.Error("screenshot capture failed",
			zap.Int("step_id", out.StepID),
			zap.Error(err))
		return
	}
	out.ScreenshotPath = path
}

// dispatch routes the action to its family. The recover guard keeps a
// panicking driver call from escaping step execution.
func (it *Interpreter) dispatch(ctx context.Context, rawAction scenario.Action, target, value string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()

	action, ok := scenario.ParseAction(string(rawAction))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedAction, rawAction)
	}

	switch action {
	case scenario.ActionNavigate:
		if value == "" {
			return fmt.Errorf("navigate requires a url value")
		}
		return it.handle.Navigate(ctx, value)
	case scenario.ActionRefresh:
		return it.handle.Refresh(ctx)
	case scenario.ActionBack:
		return it.handle.Back(ctx)
	case scenario.ActionForward:
		return it.handle.Forward(ctx)

	case scenario.ActionClick:
		return it.withElement(ctx, target, browser.Element.Click)
	case scenario.ActionDoubleClick:
		return it.withElement(ctx, target, browser.Element.DoubleClick)
	case scenario.ActionRightClick:
		return it.withElement(ctx, target, browser.Element.RightClick)
	case scenario.ActionInputText:
		return it.withElement(ctx, target, func(el browser.Element) error {
			return el.Input(value)
		})
	case scenario.ActionClearText:
		return it.withElement(ctx, target, browser.Element.Clear)
	case scenario.ActionSelectDropdown:
		return it.selectDropdown(ctx, target, value)
	case scenario.ActionHover:
		return it.withElement(ctx, target, browser.Element.Hover)

	case scenario.ActionAssertElementVisible:
		return it.assertElementVisible(ctx, target)
	case scenario.ActionAssertElementText:
		return it.assertElementText(ctx, target, value)
	case scenario.ActionAssertElementCount:
		return it.assertElementCount(ctx, target, value)
	case scenario.ActionAssertURLContains:
		return it.assertURLContains(ctx, value)
	case scenario.ActionAssertTitleContains:
		return it.assertTitleContains(ctx, value)

	case scenario.ActionWaitForElement:
		loc, err := locator.Resolve(target)
		if err != nil {
			return err
		}
		_, err = it.handle.Element(ctx, loc)
		return err
	case scenario.ActionWaitForText:
		loc, err := locator.Resolve(target)
		if err != nil {
			return err
		}
		return it.handle.WaitText(ctx, loc, value)
	case scenario.ActionWait:
		seconds := 1.0
		if value != "" {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("wait requires a numeric value: %q", value)
			}
			seconds = parsed
		}
		it.sleep(time.Duration(seconds * float64(time.Second)))
		return nil

	case scenario.ActionExecuteScript:
		return it.handle.Eval(ctx, value)
	}

	return fmt.Errorf("%w: %q", ErrUnsupportedAction, rawAction)
}

func (it *Interpreter) withElement(ctx context.Context, target string, fn func(browser.Element) error) error {
	loc, err := locator.Resolve(target)
	if err != nil {
		return err
	}
	el, err := it.handle.Element(ctx, loc)
	if err != nil {
		return err
	}
	return fn(el)
}

// selectDropdown tries value-based selection, then visible-text selection.
// The attempts are reported distinctly when both are exhausted.
func (it *Interpreter) selectDropdown(ctx context.Context, target, value string) error {
	loc, err := locator.Resolve(target)
	if err != nil {
		return err
	}
	el, err := it.handle.Element(ctx, loc)
	if err != nil {
		return err
	}
	byValue := el.SelectValue(value)
	if byValue == nil {
		return nil
	}
	byText := el.SelectText(value)
	if byText == nil {
		return nil
	}
	return fmt.Errorf("select_dropdown: no option %q: by value: %v; by visible text: %v", value, byValue, byText)
}

func (it *Interpreter) assertElementVisible(ctx context.Context, target string) error {
	loc, err := locator.Resolve(target)
	if err != nil {
		return err
	}
	if err := it.handle.WaitVisible(ctx, loc); err != nil {
		return assertionf("element not visible: %s: %v", target, err)
	}
	return nil
}

func (it *Interpreter) assertElementText(ctx context.Context, target, expected string) error {
	loc, err := locator.Resolve(target)
	if err != nil {
		return err
	}
	el, err := it.handle.Element(ctx, loc)
	if err != nil {
		return assertionf("text assertion: %v", err)
	}
	actual, err := el.Text()
	if err != nil {
		return assertionf("text assertion: %s: %v", target, err)
	}
	actual = strings.TrimSpace(actual)
	if !strings.Contains(actual, expected) {
		return assertionf("expected %q to contain %q, actual %q", target, expected, actual)
	}
	return nil
}

func (it *Interpreter) assertElementCount(ctx context.Context, target, value string) error {
	expected, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("assert_element_count requires an integer value: %q", value)
	}
	loc, err := locator.Resolve(target)
	if err != nil {
		return err
	}
	actual, err := it.handle.ElementCount(ctx, loc)
	if err != nil {
		return assertionf("element count: %s: %v", target, err)
	}
	if actual != expected {
		return assertionf("expected %d elements matching %s, found %d", expected, target, actual)
	}
	return nil
}

func (it *Interpreter) assertURLContains(ctx context.Context, expected string) error {
	current, err := it.handle.URL(ctx)
	if err != nil {
		return assertionf("url assertion: %v", err)
	}
	if !strings.Contains(current, expected) {
		return assertionf("expected url to contain %q, actual %q", expected, current)
	}
	return nil
}

func (it *Interpreter) assertTitleContains(ctx context.Context, expected string) error {
	current, err := it.handle.Title(ctx)
	if err != nil {
		return assertionf("title assertion: %v", err)
	}
	if !strings.Contains(current, expected) {
		return assertionf("expected title to contain %q, actual %q", expected, current)
	}
	return nil
}
