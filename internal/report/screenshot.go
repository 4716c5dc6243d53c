package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"webrunner/internal/browser"
	"webrunner/internal/engine"
)

// Screenshots writes step screenshots into a per-session directory under the
// configured screenshot root.
type Screenshots struct {
	sessionDir string
	log        *zap.Logger

	now func() time.Time
}

// NewScreenshots creates the session directory session_<timestamp> under
// baseDir and returns a capture collaborator bound to it.
func NewScreenshots(baseDir string, log *zap.Logger) (*Screenshots, error) {
	sessionDir := filepath.Join(baseDir, "session_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot session directory: %w", err)
	}
	return &Screenshots{sessionDir: sessionDir, log: log, now: time.Now}, nil
}

// SessionDir returns the directory receiving this session's screenshots.
func (s *Screenshots) SessionDir() string {
	return s.sessionDir
}

// CaptureStep captures the page and writes
// step_<id>_<time>_<name>_<status>.png into the session directory.
func (s *Screenshots) CaptureStep(ctx context.Context, h browser.Handle, stepID int, stepName string, status engine.Status) (string, error) {
	png, err := h.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}

	name := fmt.Sprintf("step_%02d_%s_%s_%s.png",
		stepID, s.now().Format("150405"), sanitizeFilename(stepName), status)
	path := filepath.Join(s.sessionDir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	s.log.Debug("screenshot captured", zap.String("path", path))
	return path, nil
}

// sanitizeFilename makes a step or scenario name safe as a path component:
// path and shell metacharacters and spaces become underscores, and the
// result is capped at 50 characters.
func sanitizeFilename(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*', ' ':
			return '_'
		}
		return r
	}, name)
	if len(sanitized) > 50 {
		sanitized = sanitized[:50]
	}
	return sanitized
}
