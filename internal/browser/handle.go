// Package browser owns the controllable browser session. The engine sees
// only the Handle capability; the rod-backed implementation lives here.
package browser

import (
	"context"

	"webrunner/internal/locator"
)

// Handle is the remote-control capability for one live browser session.
// Every blocking call is bounded by the configured explicit wait; none of
// them waits indefinitely.
type Handle interface {
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error

	// Element waits (bounded) for an element's presence.
	Element(ctx context.Context, loc locator.Locator) (Element, error)
	// ElementCount counts matches without waiting.
	ElementCount(ctx context.Context, loc locator.Locator) (int, error)
	// WaitVisible waits (bounded) until the element is visible.
	WaitVisible(ctx context.Context, loc locator.Locator) error
	// WaitText waits (bounded) until the element's text contains text.
	WaitText(ctx context.Context, loc locator.Locator, text string) error

	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Eval(ctx context.Context, script string) error
	Screenshot(ctx context.Context) ([]byte, error)

	// StartScreencast streams JPEG frames to sink until ctx is cancelled or
	// stop is called. done closes when the capture stream has fully exited,
	// so callers can join with a bound of their own choosing.
	StartScreencast(ctx context.Context, quality int, sink func(frame []byte)) (stop func() error, done <-chan struct{}, err error)

	// Close tears the session down. Idempotent.
	Close() error
}

// Element is a located element within the handle's current document.
type Element interface {
	Click() error
	DoubleClick() error
	RightClick() error
	// Input clears existing content, then types text.
	Input(text string) error
	Clear() error
	SelectValue(value string) error
	SelectText(text string) error
	Hover() error
	Text() (string, error)
	Visible() (bool, error)
}
