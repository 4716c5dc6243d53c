package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"webrunner/internal/config"
	"webrunner/internal/locator"
)

// Manager launches the browser and hands out at most one Handle per run.
// Only the run orchestrator acquires or releases it.
type Manager struct {
	cfg config.FrameworkConfig
	log *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
	handle  *rodHandle
}

// NewManager creates a driver manager for the given framework settings.
func NewManager(cfg config.FrameworkConfig, log *zap.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Acquire launches the browser and opens the session page. It fails if a
// handle is already live.
func (m *Manager) Acquire(ctx context.Context) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		return nil, fmt.Errorf("browser handle already acquired")
	}

	if b := strings.ToLower(m.cfg.Browser); b != "chrome" {
		// rod speaks CDP only; firefox passes validation but cannot be driven.
		return nil, fmt.Errorf("browser %q is not driveable over CDP; only chrome is supported", m.cfg.Browser)
	}

	launch := launcher.New().Headless(m.cfg.Headless)
	if m.cfg.WindowWidth > 0 && m.cfg.WindowHeight > 0 {
		launch = launch.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", m.cfg.WindowWidth, m.cfg.WindowHeight))
	}
	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if m.cfg.WindowWidth > 0 && m.cfg.WindowHeight > 0 {
		if err := (proto.EmulationSetDeviceMetricsOverride{
			Width:             m.cfg.WindowWidth,
			Height:            m.cfg.WindowHeight,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		}).Call(page); err != nil {
			m.log.Warn("failed to set viewport", zap.Error(err))
		}
	}

	m.browser = b
	m.handle = &rodHandle{
		page:     page,
		explicit: m.cfg.ExplicitWaitDuration(),
		log:      m.log,
	}
	m.log.Info("browser session acquired",
		zap.Bool("headless", m.cfg.Headless),
		zap.Duration("explicit_wait", m.handle.explicit))
	return m.handle, nil
}

// Release tears down the live handle and browser. Releasing an
// already-released or never-acquired manager is a no-op.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		_ = m.handle.Close()
		m.handle = nil
	}
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.log.Warn("browser close", zap.Error(err))
		}
		m.browser = nil
		m.log.Info("browser session released")
	}
}

type rodHandle struct {
	page     *rod.Page
	explicit time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	closed bool
}

func (h *rodHandle) bounded(ctx context.Context) *rod.Page {
	return h.page.Context(ctx).Timeout(h.explicit)
}

func (h *rodHandle) Navigate(ctx context.Context, url string) error {
	p := h.bounded(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return p.WaitLoad()
}

func (h *rodHandle) Refresh(ctx context.Context) error {
	p := h.bounded(ctx)
	if err := p.Reload(); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (h *rodHandle) Back(ctx context.Context) error {
	return h.bounded(ctx).NavigateBack()
}

func (h *rodHandle) Forward(ctx context.Context) error {
	return h.bounded(ctx).NavigateForward()
}

func (h *rodHandle) Element(ctx context.Context, loc locator.Locator) (Element, error) {
	el, err := h.find(ctx, loc)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (h *rodHandle) find(ctx context.Context, loc locator.Locator) (*rod.Element, error) {
	p := h.bounded(ctx)
	var el *rod.Element
	var err error
	if loc.IsXPath() {
		el, err = p.ElementX(loc.Selector())
	} else {
		el, err = p.Element(loc.Selector())
	}
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", loc, err)
	}
	return el, nil
}

func (h *rodHandle) ElementCount(ctx context.Context, loc locator.Locator) (int, error) {
	p := h.page.Context(ctx)
	if loc.IsXPath() {
		els, err := p.ElementsX(loc.Selector())
		if err != nil {
			return 0, err
		}
		return len(els), nil
	}
	els, err := p.Elements(loc.Selector())
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (h *rodHandle) WaitVisible(ctx context.Context, loc locator.Locator) error {
	el, err := h.find(ctx, loc)
	if err != nil {
		return err
	}
	if err := el.Timeout(h.explicit).WaitVisible(); err != nil {
		return fmt.Errorf("element not visible: %s: %w", loc, err)
	}
	return nil
}

func (h *rodHandle) WaitText(ctx context.Context, loc locator.Locator, text string) error {
	deadline := time.Now().Add(h.explicit)
	for {
		el, err := h.find(ctx, loc)
		if err == nil {
			actual, terr := el.Text()
			if terr == nil && strings.Contains(actual, text) {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for text %q in %s", text, loc)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func (h *rodHandle) URL(ctx context.Context) (string, error) {
	info, err := h.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (h *rodHandle) Title(ctx context.Context) (string, error) {
	info, err := h.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (h *rodHandle) Eval(ctx context.Context, script string) error {
	_, err := h.bounded(ctx).Evaluate(&rod.EvalOptions{
		JS:           fmt.Sprintf("() => {\n%s\n}", script),
		ByValue:      true,
		AwaitPromise: true,
		UserGesture:  true,
	})
	if err != nil {
		return fmt.Errorf("execute script: %w", err)
	}
	return nil
}

func (h *rodHandle) Screenshot(ctx context.Context) ([]byte, error) {
	return h.bounded(ctx).Screenshot(false, nil)
}

func (h *rodHandle) StartScreencast(ctx context.Context, quality int, sink func(frame []byte)) (func() error, <-chan struct{}, error) {
	p := h.page.Context(ctx)
	q := quality
	if q <= 0 || q > 100 {
		q = 60
	}
	if err := (proto.PageStartScreencast{
		Format:  proto.PageStartScreencastFormatJpeg,
		Quality: &q,
	}).Call(p); err != nil {
		return nil, nil, fmt.Errorf("start screencast: %w", err)
	}

	done := make(chan struct{})
	wait := p.EachEvent(func(e *proto.PageScreencastFrame) {
		sink(e.Data)
		if err := (proto.PageScreencastFrameAck{SessionID: e.SessionID}).Call(p); err != nil {
			h.log.Debug("screencast ack", zap.Error(err))
		}
	})
	go func() {
		defer close(done)
		wait()
	}()

	stop := func() error {
		return proto.PageStopScreencast{}.Call(p)
	}
	return stop, done, nil
}

func (h *rodHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) DoubleClick() error {
	return e.el.Click(proto.InputMouseButtonLeft, 2)
}

func (e *rodElement) RightClick() error {
	return e.el.Click(proto.InputMouseButtonRight, 1)
}

func (e *rodElement) Input(text string) error {
	if err := e.Clear(); err != nil {
		return err
	}
	return e.el.Input(text)
}

func (e *rodElement) Clear() error {
	if err := e.el.SelectAllText(); err != nil {
		return err
	}
	return e.el.Type(input.Backspace)
}

func (e *rodElement) SelectValue(value string) error {
	return e.el.Select([]string{fmt.Sprintf(`option[value=%q]`, value)}, true, rod.SelectorTypeCSSSector)
}

func (e *rodElement) SelectText(text string) error {
	return e.el.Select([]string{text}, true, rod.SelectorTypeText)
}

func (e *rodElement) Hover() error {
	return e.el.Hover()
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Visible() (bool, error) {
	return e.el.Visible()
}
