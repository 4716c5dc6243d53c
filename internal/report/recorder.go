package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"webrunner/internal/browser"
	"webrunner/internal/config"
)

// Recorder captures screencast frames for one scenario at a time. Frames are
// JPEG files written into a per-scenario directory under the session
// directory; the directory is the recording artifact.
type Recorder struct {
	handle browser.Handle
	cfg    config.VideoConfig
	log    *zap.Logger

	sessionDir string
	// joinTimeout bounds Stop's wait for the capture stream to exit.
	joinTimeout time.Duration

	mu     sync.Mutex
	active *capture
}

// capture is the state of one in-flight recording.
type capture struct {
	dir    string
	cancel context.CancelFunc
	stop   func() error
	done   <-chan struct{}

	mu        sync.Mutex
	frames    int
	lastWrite time.Time
	interval  time.Duration
}

// NewRecorder creates the session directory under baseDir and returns a
// recorder streaming frames from the handle.
func NewRecorder(h browser.Handle, baseDir string, cfg config.VideoConfig, log *zap.Logger) (*Recorder, error) {
	sessionDir := filepath.Join(baseDir, "session_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("create video session directory: %w", err)
	}
	return &Recorder{
		handle:      h,
		cfg:         cfg,
		log:         log,
		sessionDir:  sessionDir,
		joinTimeout: 5 * time.Second,
	}, nil
}

// Start begins recording for the named scenario. At most one recording may
// be in flight.
func (r *Recorder) Start(scenarioName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return errors.New("recording already in progress")
	}

	dir := filepath.Join(r.sessionDir,
		fmt.Sprintf("test_%s_%s", time.Now().Format("20060102_150405"), sanitizeFilename(scenarioName)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create recording directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &capture{dir: dir, cancel: cancel}
	if r.cfg.FPS > 0 {
		c.interval = time.Second / time.Duration(r.cfg.FPS)
	}

	stop, done, err := r.handle.StartScreencast(ctx, r.cfg.Quality, c.writeFrame)
	if err != nil {
		cancel()
		return fmt.Errorf("start screencast: %w", err)
	}
	c.stop = stop
	c.done = done
	r.active = c

	r.log.Info("recording started", zap.String("scenario", scenarioName), zap.String("dir", dir))
	return nil
}

// Stop ends the in-flight recording and returns its artifact directory. The
// join on the capture stream is bounded; an unresponsive stream is abandoned
// rather than hanging the scenario.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	c := r.active
	r.active = nil
	r.mu.Unlock()

	if c == nil {
		return "", errors.New("no recording in progress")
	}

	stopErr := c.stop()
	c.cancel()

	select {
	case <-c.done:
	case <-time.After(r.joinTimeout):
		r.log.Warn("capture stream did not exit in time, abandoning", zap.String("dir", c.dir))
	}

	c.mu.Lock()
	frames := c.frames
	c.mu.Unlock()
	r.log.Info("recording stopped", zap.String("dir", c.dir), zap.Int("frames", frames))

	if stopErr != nil {
		return c.dir, fmt.Errorf("stop screencast: %w", stopErr)
	}
	return c.dir, nil
}

// writeFrame persists one screencast frame, throttled to the configured
// frame rate. Called from the capture stream's goroutine.
func (c *capture) writeFrame(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.interval > 0 && !c.lastWrite.IsZero() && now.Sub(c.lastWrite) < c.interval {
		return
	}

	path := filepath.Join(c.dir, fmt.Sprintf("frame_%05d.jpg", c.frames))
	if err := os.WriteFile(path, frame, 0o644); err != nil {
		// Frame loss is tolerable; the rest of the recording stands.
		return
	}
	c.frames++
	c.lastWrite = now
}
