package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"webrunner/internal/browser"
	"webrunner/internal/locator"
)

// fakeElement implements browser.Element for interpreter tests.
type fakeElement struct {
	text    string
	visible bool

	clicks       int
	doubleClicks int
	rightClicks  int
	hovers       int
	clears       int
	inputs       []string

	selectValueErr error
	selectTextErr  error
	selectedValues []string
	selectedTexts  []string
}

func (e *fakeElement) Click() error       { e.clicks++; return nil }
func (e *fakeElement) DoubleClick() error { e.doubleClicks++; return nil }
func (e *fakeElement) RightClick() error  { e.rightClicks++; return nil }
func (e *fakeElement) Hover() error       { e.hovers++; return nil }
func (e *fakeElement) Clear() error       { e.clears++; return nil }

func (e *fakeElement) Input(text string) error {
	e.clears++
	e.inputs = append(e.inputs, text)
	return nil
}

func (e *fakeElement) SelectValue(value string) error {
	if e.selectValueErr != nil {
		return e.selectValueErr
	}
	e.selectedValues = append(e.selectedValues, value)
	return nil
}

func (e *fakeElement) SelectText(text string) error {
	if e.selectTextErr != nil {
		return e.selectTextErr
	}
	e.selectedTexts = append(e.selectedTexts, text)
	return nil
}

func (e *fakeElement) Text() (string, error)   { return e.text, nil }
func (e *fakeElement) Visible() (bool, error)  { return e.visible, nil }

// fakeHandle implements browser.Handle. Elements are keyed by the locator's
// string form ("id:username").
type fakeHandle struct {
	mu sync.Mutex

	elements map[string]*fakeElement
	counts   map[string]int
	url      string
	title    string

	navigations []string
	refreshes   int
	backs       int
	forwards    int
	scripts     []string

	waitTextErr    error
	screenshot     []byte
	screenshotErr  error
	tornDown       bool
	closeCount     int
	panicOnElement bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		elements:   map[string]*fakeElement{},
		counts:     map[string]int{},
		screenshot: []byte("png"),
	}
}

func (h *fakeHandle) checkAlive() error {
	if h.tornDown {
		return errors.New("browser session is gone")
	}
	return nil
}

func (h *fakeHandle) Navigate(_ context.Context, url string) error {
	if err := h.checkAlive(); err != nil {
		return err
	}
	h.navigations = append(h.navigations, url)
	return nil
}

func (h *fakeHandle) Refresh(context.Context) error { h.refreshes++; return h.checkAlive() }
func (h *fakeHandle) Back(context.Context) error    { h.backs++; return h.checkAlive() }
func (h *fakeHandle) Forward(context.Context) error { h.forwards++; return h.checkAlive() }

func (h *fakeHandle) Element(_ context.Context, loc locator.Locator) (browser.Element, error) {
	if h.panicOnElement {
		panic("driver connection lost")
	}
	if err := h.checkAlive(); err != nil {
		return nil, err
	}
	el, ok := h.elements[loc.String()]
	if !ok {
		return nil, fmt.Errorf("element not found: %s", loc)
	}
	return el, nil
}

func (h *fakeHandle) ElementCount(_ context.Context, loc locator.Locator) (int, error) {
	if err := h.checkAlive(); err != nil {
		return 0, err
	}
	return h.counts[loc.String()], nil
}

func (h *fakeHandle) WaitVisible(ctx context.Context, loc locator.Locator) error {
	el, err := h.Element(ctx, loc)
	if err != nil {
		return err
	}
	visible, _ := el.Visible()
	if !visible {
		return fmt.Errorf("element never became visible: %s", loc)
	}
	return nil
}

func (h *fakeHandle) WaitText(ctx context.Context, loc locator.Locator, text string) error {
	if h.waitTextErr != nil {
		return h.waitTextErr
	}
	_, err := h.Element(ctx, loc)
	return err
}

func (h *fakeHandle) URL(context.Context) (string, error)   { return h.url, h.checkAlive() }
func (h *fakeHandle) Title(context.Context) (string, error) { return h.title, h.checkAlive() }

func (h *fakeHandle) Eval(_ context.Context, script string) error {
	if err := h.checkAlive(); err != nil {
		return err
	}
	h.scripts = append(h.scripts, script)
	return nil
}

func (h *fakeHandle) Screenshot(context.Context) ([]byte, error) {
	return h.screenshot, h.screenshotErr
}

func (h *fakeHandle) StartScreencast(ctx context.Context, _ int, _ func([]byte)) (func() error, <-chan struct{}, error) {
	done := make(chan struct{})
	close(done)
	return func() error { return nil }, done, nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCount++
	h.tornDown = true
	return nil
}

// fakeProvider implements HandleProvider with the same idempotent release
// semantics as the rod manager.
type fakeProvider struct {
	mu         sync.Mutex
	handle     *fakeHandle
	acquireErr error

	acquired int
	released int
	live     bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{handle: newFakeHandle()}
}

func (p *fakeProvider) Acquire(context.Context) (browser.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	p.live = true
	return p.handle, nil
}

func (p *fakeProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.live {
		return
	}
	p.live = false
	p.released++
	p.handle.tornDown = true
}

// fakeScreenshotter records captures.
type fakeScreenshotter struct {
	calls []Status
	path  string
	err   error
}

func (s *fakeScreenshotter) CaptureStep(_ context.Context, _ browser.Handle, _ int, _ string, status Status) (string, error) {
	s.calls = append(s.calls, status)
	return s.path, s.err
}

// fakeRecorder records lifecycle calls.
type fakeRecorder struct {
	started    []string
	stops      int
	path       string
	startErr   error
	stopErr    error
	panicStart bool
}

func (r *fakeRecorder) Start(name string) error {
	if r.panicStart {
		panic("recorder wedged")
	}
	if r.startErr != nil {
		return r.startErr
	}
	r.started = append(r.started, name)
	return nil
}

func (r *fakeRecorder) Stop() (string, error) {
	r.stops++
	return r.path, r.stopErr
}
