package app

import (
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// HotReloader watches the running binary for changes and invokes a callback
// when a newer version appears on disk. Used during development to prompt
// for a restart after recompilation.
type HotReloader struct {
	execPath string
	baseline time.Time
	interval time.Duration
	stopCh   chan struct{}
}

// NewHotReloader creates a hot reloader watching the current executable.
// Returns nil if the executable cannot be resolved.
func NewHotReloader(interval time.Duration) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}

	// go build writes a new file; follow the symlink so we stat the
	// real binary, not the launcher path.
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = realPath
	}

	info, err := os.Stat(execPath)
	if err != nil {
		return nil
	}

	return &HotReloader{
		execPath: execPath,
		baseline: info.ModTime(),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start watches for binary changes in a background goroutine. onNewBinary
// runs on that goroutine once, the first time a newer binary is seen.
func (h *HotReloader) Start(onNewBinary func()) {
	h.stopCh = make(chan struct{})
	go h.watchLoop(onNewBinary)
}

// Stop stops the watcher goroutine.
func (h *HotReloader) Stop() {
	close(h.stopCh)
}

func (h *HotReloader) watchLoop(onNewBinary func()) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			if h.newerThanBaseline() {
				if onNewBinary != nil {
					onNewBinary()
				}
				// Trigger once, then stand down until restarted.
				return
			}
		}
	}
}

func (h *HotReloader) newerThanBaseline() bool {
	info, err := os.Stat(h.execPath)
	if err != nil {
		return false
	}
	return info.ModTime().After(h.baseline)
}

// ResetBaseline accepts the current binary as the new baseline. Call when
// the user declines a restart to avoid repeated prompts.
func (h *HotReloader) ResetBaseline() {
	if info, err := os.Stat(h.execPath); err == nil {
		h.baseline = info.ModTime()
	}
}

// ExecPath returns the path of the watched binary.
func (h *HotReloader) ExecPath() string {
	return h.execPath
}

// Restart replaces the current process with a new instance of the binary,
// preserving arguments and environment. Does not return on success.
func (h *HotReloader) Restart() error {
	return syscall.Exec(h.execPath, os.Args, os.Environ())
}
