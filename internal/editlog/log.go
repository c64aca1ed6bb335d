// Package editlog stores the ordered edit history for each document page.
//
// The log is append-only: committed gestures are only ever added to the end
// of a page's history or cleared wholesale. Rendering a page is a replay of
// its history over the pristine raster, so the log is the authoritative
// record of every pixel edit and the only thing that needs persisting.
package editlog

import (
	"sort"
	"sync"

	"doc-annotator/internal/raster"
	"doc-annotator/internal/stroke"
)

// Log holds per-page action histories indexed by zero-based page number.
type Log struct {
	mu    sync.RWMutex
	pages map[int][]stroke.Action
}

// New creates an empty log.
func New() *Log {
	return &Log{pages: make(map[int][]stroke.Action)}
}

// Append adds a committed action to the end of a page's history. Actions
// with no strokes are dropped.
func (l *Log) Append(page int, a stroke.Action) {
	if a.Empty() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pages[page] = append(l.pages[page], copyAction(a))
}

// ActionsFor returns a copy of the page's history in application order.
// Pages with no edits return an empty slice.
func (l *Log) ActionsFor(page int) []stroke.Action {
	l.mu.RLock()
	defer l.mu.RUnlock()

	actions := make([]stroke.Action, 0, len(l.pages[page]))
	for _, a := range l.pages[page] {
		actions = append(actions, copyAction(a))
	}
	return actions
}

// ActionCount returns the number of committed actions for a page.
func (l *Log) ActionCount(page int) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pages[page])
}

// StrokeCount returns the total number of strokes recorded for a page.
func (l *Log) StrokeCount(page int) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for _, a := range l.pages[page] {
		total += len(a.Strokes)
	}
	return total
}

// ClearPage discards the history of a single page.
func (l *Log) ClearPage(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pages, page)
}

// Reset discards every page's history.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pages = make(map[int][]stroke.Action)
}

// Restore replaces a page's history, used when loading a project file.
// Empty actions are dropped.
func (l *Log) Restore(page int, actions []stroke.Action) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]stroke.Action, 0, len(actions))
	for _, a := range actions {
		if a.Empty() {
			continue
		}
		kept = append(kept, copyAction(a))
	}
	if len(kept) == 0 {
		delete(l.pages, page)
		return
	}
	l.pages[page] = kept
}

// Pages returns the sorted page numbers that have at least one action.
func (l *Log) Pages() []int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pages := make([]int, 0, len(l.pages))
	for p := range l.pages {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

func copyAction(a stroke.Action) stroke.Action {
	return stroke.Action{
		Kind:    a.Kind,
		Strokes: append([]stroke.Stroke(nil), a.Strokes...),
	}
}

// Replay folds an action history over a pristine raster and returns the
// resulting working raster. The pristine raster is never modified; blur
// strokes read from it while the fold mutates the returned copy. Replaying
// the same history over the same pristine raster always produces identical
// pixels.
func Replay(pristine *raster.Raster, actions []stroke.Action) *raster.Raster {
	working := pristine.Clone()
	for _, a := range actions {
		a.Apply(working, pristine)
	}
	return working
}
