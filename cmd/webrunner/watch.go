package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webrunner/internal/config"
)

// watchAndValidate re-runs validation whenever the configuration or one of
// the files it references changes. Events are debounced so an editor's
// write-then-rename dance triggers one pass, not several.
func watchAndValidate(cmd *cobra.Command) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	addWatchTargets(watcher)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	fmt.Fprintln(cmd.OutOrStdout(), "watching for changes (ctrl-c to stop)...")

	var debounce <-chan time.Time
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		case <-debounce:
			debounce = nil
			fmt.Fprintln(cmd.OutOrStdout(), "---")
			if err := validateOnce(cmd); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), err.Error())
			}
			// The edited config may reference files it did not before.
			addWatchTargets(watcher)
		case <-sig:
			return nil
		}
	}
}

// addWatchTargets watches the directories holding the config and every file
// it references. Directories, not files: editors replace files on save, and
// a file watch dies with the inode.
func addWatchTargets(w *fsnotify.Watcher) {
	dirs := map[string]struct{}{filepath.Dir(cfgPath): {}}
	if cfg, err := config.Load(cfgPath); err == nil {
		for _, ref := range cfg.Scenarios {
			dirs[filepath.Dir(ref.ScenarioFile)] = struct{}{}
			dirs[filepath.Dir(ref.TestDataFile)] = struct{}{}
		}
		if cfg.EnvironmentFile != "" {
			dirs[filepath.Dir(cfg.EnvironmentFile)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		}
	}
}
