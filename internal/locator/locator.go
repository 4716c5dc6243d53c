// Package locator parses target strings of the form "strategy:value" into
// structured locators the browser layer can resolve against a live page.
package locator

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy identifies how a selector value addresses an element.
type Strategy string

const (
	StrategyID              Strategy = "id"
	StrategyName            Strategy = "name"
	StrategyClass           Strategy = "class"
	StrategyTag             Strategy = "tag"
	StrategyCSS             Strategy = "css"
	StrategyXPath           Strategy = "xpath"
	StrategyLinkText        Strategy = "link_text"
	StrategyPartialLinkText Strategy = "partial_link_text"
)

var (
	// ErrInvalidTargetFormat means the target string has no ":" separator.
	ErrInvalidTargetFormat = errors.New("invalid target format")
	// ErrUnsupportedStrategy means the prefix is not a known strategy.
	ErrUnsupportedStrategy = errors.New("unsupported target strategy")
)

var strategies = map[string]Strategy{
	"id":                StrategyID,
	"name":              StrategyName,
	"class":             StrategyClass,
	"tag":               StrategyTag,
	"css":               StrategyCSS,
	"xpath":             StrategyXPath,
	"link_text":         StrategyLinkText,
	"partial_link_text": StrategyPartialLinkText,
}

// Locator is a parsed (strategy, value) pair.
type Locator struct {
	Strategy Strategy
	Value    string
}

// Resolve parses a "strategy:value" target string. The value may itself
// contain ":"; only the first separator is significant.
func Resolve(target string) (Locator, error) {
	prefix, value, found := strings.Cut(target, ":")
	if !found {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidTargetFormat, target)
	}
	strategy, ok := strategies[prefix]
	if !ok {
		return Locator{}, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, prefix)
	}
	return Locator{Strategy: strategy, Value: value}, nil
}

// IsXPath reports whether Selector returns an XPath expression rather than
// a CSS selector.
func (l Locator) IsXPath() bool {
	switch l.Strategy {
	case StrategyXPath, StrategyLinkText, StrategyPartialLinkText:
		return true
	}
	return false
}

// Selector returns the CSS selector or XPath expression for this locator.
func (l Locator) Selector() string {
	switch l.Strategy {
	case StrategyID:
		return fmt.Sprintf("[id=%q]", l.Value)
	case StrategyName:
		return fmt.Sprintf("[name=%q]", l.Value)
	case StrategyClass:
		return fmt.Sprintf("[class~=%q]", l.Value)
	case StrategyTag, StrategyCSS:
		return l.Value
	case StrategyXPath:
		return l.Value
	case StrategyLinkText:
		return fmt.Sprintf("//a[normalize-space(.)=%s]", xpathLiteral(l.Value))
	case StrategyPartialLinkText:
		return fmt.Sprintf("//a[contains(., %s)]", xpathLiteral(l.Value))
	}
	return l.Value
}

func (l Locator) String() string {
	return string(l.Strategy) + ":" + l.Value
}

// xpathLiteral quotes s as an XPath string literal. XPath 1.0 has no escape
// sequences, so a value containing both quote kinds is built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
