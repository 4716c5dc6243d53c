package scenario

import "strings"

// Action is one verb from the closed step vocabulary.
type Action string

const (
	ActionNavigate Action = "navigate"
	ActionRefresh  Action = "refresh"
	ActionBack     Action = "back"
	ActionForward  Action = "forward"

	ActionClick          Action = "click"
	ActionDoubleClick    Action = "double_click"
	ActionRightClick     Action = "right_click"
	ActionInputText      Action = "input_text"
	ActionClearText      Action = "clear_text"
	ActionSelectDropdown Action = "select_dropdown"
	ActionHover          Action = "hover"

	ActionAssertElementVisible Action = "assert_element_visible"
	ActionAssertElementText    Action = "assert_element_text"
	ActionAssertElementCount   Action = "assert_element_count"
	ActionAssertURLContains    Action = "assert_url_contains"
	ActionAssertTitleContains  Action = "assert_title_contains"

	ActionWaitForElement Action = "wait_for_element"
	ActionWaitForText    Action = "wait_for_text"
	ActionWait           Action = "wait"

	ActionExecuteScript Action = "execute_script"
)

// Kind groups actions into dispatch families.
type Kind int

const (
	KindUnknown Kind = iota
	KindNavigation
	KindElement
	KindAssertion
	KindWait
	KindScript
)

var actionKinds = map[Action]Kind{
	ActionNavigate: KindNavigation,
	ActionRefresh:  KindNavigation,
	ActionBack:     KindNavigation,
	ActionForward:  KindNavigation,

	ActionClick:          KindElement,
	ActionDoubleClick:    KindElement,
	ActionRightClick:     KindElement,
	ActionInputText:      KindElement,
	ActionClearText:      KindElement,
	ActionSelectDropdown: KindElement,
	ActionHover:          KindElement,

	ActionAssertElementVisible: KindAssertion,
	ActionAssertElementText:    KindAssertion,
	ActionAssertElementCount:   KindAssertion,
	ActionAssertURLContains:    KindAssertion,
	ActionAssertTitleContains:  KindAssertion,

	ActionWaitForElement: KindWait,
	ActionWaitForText:    KindWait,
	ActionWait:           KindWait,

	ActionExecuteScript: KindScript,
}

// ParseAction normalizes a raw action string. The second return is false
// when the action is outside the vocabulary.
func ParseAction(raw string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := actionKinds[a]
	return a, ok
}

// Kind returns the action's dispatch family, KindUnknown for anything
// outside the vocabulary.
func (a Action) Kind() Kind {
	return actionKinds[a]
}

// Actions returns the full vocabulary in a stable order.
func Actions() []Action {
	return []Action{
		ActionNavigate, ActionRefresh, ActionBack, ActionForward,
		ActionClick, ActionDoubleClick, ActionRightClick, ActionInputText,
		ActionClearText, ActionSelectDropdown, ActionHover,
		ActionAssertElementVisible, ActionAssertElementText,
		ActionAssertElementCount, ActionAssertURLContains,
		ActionAssertTitleContains,
		ActionWaitForElement, ActionWaitForText, ActionWait,
		ActionExecuteScript,
	}
}
