// Package app provides application lifecycle management, configuration, and events.
package app

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"sync"

	"doc-annotator/internal/editlog"
	"doc-annotator/internal/export"
	"doc-annotator/internal/overlay"
	"doc-annotator/internal/page"
	"doc-annotator/internal/pdf"
	"doc-annotator/internal/project"
	"doc-annotator/internal/stroke"
)

// State holds the application state including the open document, the current
// project, the edit history, and the text box overlay.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	// Document
	DocumentPath string

	// Edit history and labels
	Log   *editlog.Log
	Boxes *overlay.Store

	// Page display
	Controller *page.Controller

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventDocumentLoaded EventType = iota
	EventPageReady
	EventPageLoadFailed
	EventEditsChanged
	EventLabelsChanged
	EventPageCleared
	EventModified
	EventProjectLoaded
	EventProjectSaved
	EventExportFinished
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state backed by the poppler rasterizer.
func NewState() *State {
	log := editlog.New()
	return &State{
		Log:        log,
		Boxes:      overlay.NewStore(),
		Controller: page.NewController(pdf.NewRasterizer(), log),
		listeners:  make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// OpenDocument opens a document for annotation and displays its first page.
// Any edit history and labels from a previously open document are discarded.
func (s *State) OpenDocument(ctx context.Context, path string) error {
	if _, err := s.Controller.OpenDocument(ctx, path); err != nil {
		return err
	}

	s.Log.Reset()
	s.Boxes.Reset()

	s.mu.Lock()
	s.DocumentPath = path
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventDocumentLoaded, path)

	return s.LoadPage(ctx, 0)
}

// LoadPage navigates to the given page. A load superseded by a newer
// navigation is not an error and emits nothing; the newer load will.
func (s *State) LoadPage(ctx context.Context, pageIndex int) error {
	err := s.Controller.LoadPage(ctx, pageIndex)
	if errors.Is(err, page.ErrSuperseded) {
		return nil
	}
	if err != nil {
		s.Emit(EventPageLoadFailed, err)
		return err
	}
	s.Emit(EventPageReady, pageIndex)
	return nil
}

// CommitAction appends a finished stroke gesture to the current page's
// history. The working raster already carries the gesture's pixels.
func (s *State) CommitAction(pageIndex int, a stroke.Action) {
	if a.Empty() {
		return
	}
	s.Log.Append(pageIndex, a)
	s.SetModified(true)
	s.Emit(EventEditsChanged, pageIndex)
}

// ClearPage removes all edits and labels from the current page and reloads
// it from the document.
func (s *State) ClearPage(ctx context.Context) error {
	pageIndex := s.Controller.CurrentPage()
	if pageIndex < 0 {
		return nil
	}

	s.Log.ClearPage(pageIndex)
	s.Boxes.ClearPage(pageIndex)
	s.SetModified(true)
	s.Emit(EventPageCleared, pageIndex)

	err := s.Controller.Reload(ctx)
	if errors.Is(err, page.ErrSuperseded) {
		return nil
	}
	if err != nil {
		s.Emit(EventPageLoadFailed, err)
		return err
	}
	s.Emit(EventPageReady, pageIndex)
	return nil
}

// CreateLabel places a new, empty text box on the given page and returns its
// id. The box starts in editing mode so the caller can prompt for text.
func (s *State) CreateLabel(pageIndex int, x, y, fontSize float64, c color.RGBA) string {
	id := s.Boxes.Create(pageIndex, x, y, fontSize, c)
	s.SetModified(true)
	s.Emit(EventLabelsChanged, pageIndex)
	return id
}

// MoveLabel repositions a text box.
func (s *State) MoveLabel(id string, x, y float64) {
	box, ok := s.Boxes.Get(id)
	if !ok {
		return
	}
	s.Boxes.Move(id, x, y)
	s.SetModified(true)
	s.Emit(EventLabelsChanged, box.Page)
}

// SetLabelText changes a text box's text.
func (s *State) SetLabelText(id, text string) {
	box, ok := s.Boxes.Get(id)
	if !ok {
		return
	}
	s.Boxes.SetText(id, text)
	s.SetModified(true)
	s.Emit(EventLabelsChanged, box.Page)
}

// SetLabelStyle changes a text box's font size and color.
func (s *State) SetLabelStyle(id string, fontSize float64, c color.RGBA) {
	box, ok := s.Boxes.Get(id)
	if !ok {
		return
	}
	s.Boxes.SetStyle(id, fontSize, c)
	s.SetModified(true)
	s.Emit(EventLabelsChanged, box.Page)
}

// SetLabelEditing toggles a text box's transient editing flag. Editing state
// is display-only and never marks the project modified.
func (s *State) SetLabelEditing(id string, editing bool) {
	box, ok := s.Boxes.Get(id)
	if !ok {
		return
	}
	s.Boxes.SetEditing(id, editing)
	s.Emit(EventLabelsChanged, box.Page)
}

// DeleteLabel removes a text box.
func (s *State) DeleteLabel(id string) {
	box, ok := s.Boxes.Get(id)
	if !ok {
		return
	}
	s.Boxes.Delete(id)
	s.SetModified(true)
	s.Emit(EventLabelsChanged, box.Page)
}

// LoadProject loads a project from the specified path, opening its document
// and restoring the saved edit history and labels.
func (s *State) LoadProject(ctx context.Context, path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	if proj.Scale > 0 {
		s.Controller.SetScale(proj.Scale)
	}

	// Open the document first: opening resets the history, and the
	// restore below must land on the clean slate.
	docPath := proj.GetDocumentPath(path)
	if docPath != "" {
		if err := s.OpenDocument(ctx, docPath); err != nil {
			return err
		}
	} else {
		s.Log.Reset()
		s.Boxes.Reset()
	}

	if err := proj.RestoreState(s.Log, s.Boxes); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.mu.Unlock()

	// Redisplay the current page with the restored history applied.
	if s.Controller.CurrentPage() >= 0 {
		if err := s.Controller.Reload(ctx); err != nil && !errors.Is(err, page.ErrSuperseded) {
			s.Emit(EventPageLoadFailed, err)
			return err
		}
		s.Emit(EventPageReady, s.Controller.CurrentPage())
	}

	s.SetModified(false)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject saves the project to the specified path.
func (s *State) SaveProject(path string) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	proj := project.New(name)
	proj.Scale = s.Controller.Scale()
	proj.CaptureState(s.Log, s.Boxes)

	s.mu.RLock()
	docPath := s.DocumentPath
	s.mu.RUnlock()
	if docPath != "" {
		proj.SetDocument(path, docPath)
	}

	if err := proj.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventProjectSaved, path)
	return nil
}

// Export writes every page of the document, with edits replayed and labels
// rendered, to outPath. The pipeline navigates through all pages; the page
// that was displayed before the export is reloaded afterwards.
func (s *State) Export(ctx context.Context, outPath string) (*export.Result, error) {
	displayed := s.Controller.CurrentPage()

	pipeline := export.NewPipeline(s.Controller, s.Boxes)
	res, err := pipeline.Run(ctx, outPath)
	if err != nil {
		return nil, err
	}

	if displayed >= 0 {
		if err := s.Controller.LoadPage(ctx, displayed); err != nil {
			s.Emit(EventPageLoadFailed, err)
		} else {
			s.Emit(EventPageReady, displayed)
		}
	}

	s.Emit(EventExportFinished, res)
	return res, nil
}
