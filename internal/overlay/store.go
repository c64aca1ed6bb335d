// Package overlay manages movable text labels layered above page rasters.
//
// Labels live outside the stroke edit history: they stay editable after
// creation and are drawn on top of the replayed raster, at render time only.
package overlay

import (
	"image/color"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// TextBox is a single text label on a page. X, Y is the top-left anchor of
// the rendered text in raster coordinates. IsEditing marks the box whose
// text entry is currently open on the canvas; it is never persisted.
type TextBox struct {
	ID        string
	Page      int
	X         float64
	Y         float64
	Text      string
	FontSize  float64
	Color     color.RGBA
	IsEditing bool
}

// Store holds all text boxes indexed by ID, with per-page creation order.
// Every operation taking an ID silently ignores IDs that are not present, so
// callers never need to check for staleness.
type Store struct {
	mu    sync.RWMutex
	boxes map[string]*TextBox
	order map[int][]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		boxes: make(map[string]*TextBox),
		order: make(map[int][]string),
	}
}

// Create adds a new text box with empty text, open for editing, and returns
// its generated ID.
func (s *Store) Create(page int, x, y, fontSize float64, c color.RGBA) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	box := &TextBox{
		ID:        uuid.New().String(),
		Page:      page,
		X:         x,
		Y:         y,
		FontSize:  fontSize,
		Color:     c,
		IsEditing: true,
	}
	s.boxes[box.ID] = box
	s.order[page] = append(s.order[page], box.ID)
	return box.ID
}

// Restore inserts a box with its existing ID, used when loading a project
// file. Boxes restore in call order, which becomes the page's z-order.
func (s *Store) Restore(box TextBox) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.boxes[box.ID]; exists {
		return
	}
	copied := box
	s.boxes[box.ID] = &copied
	s.order[box.Page] = append(s.order[box.Page], box.ID)
}

// Get returns a box by ID.
func (s *Store) Get(id string) (TextBox, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	box, ok := s.boxes[id]
	if !ok {
		return TextBox{}, false
	}
	return *box, true
}

// Move repositions a box's top-left anchor.
func (s *Store) Move(id string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if box, ok := s.boxes[id]; ok {
		box.X = x
		box.Y = y
	}
}

// SetText replaces a box's text.
func (s *Store) SetText(id, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if box, ok := s.boxes[id]; ok {
		box.Text = text
	}
}

// SetStyle replaces a box's font size and color.
func (s *Store) SetStyle(id string, fontSize float64, c color.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if box, ok := s.boxes[id]; ok {
		box.FontSize = fontSize
		box.Color = c
	}
}

// SetEditing opens or closes a box's text entry.
func (s *Store) SetEditing(id string, editing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if box, ok := s.boxes[id]; ok {
		box.IsEditing = editing
	}
}

// Delete removes a box.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	box, ok := s.boxes[id]
	if !ok {
		return
	}
	delete(s.boxes, id)

	ids := s.order[box.Page]
	for i, other := range ids {
		if other == id {
			s.order[box.Page] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// BoxesFor returns copies of a page's boxes in creation order.
func (s *Store) BoxesFor(page int) []TextBox {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[page]
	boxes := make([]TextBox, 0, len(ids))
	for _, id := range ids {
		if box, ok := s.boxes[id]; ok {
			boxes = append(boxes, *box)
		}
	}
	return boxes
}

// CountFor returns the number of boxes on a page.
func (s *Store) CountFor(page int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order[page])
}

// ClearPage removes every box on a page.
func (s *Store) ClearPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order[page] {
		delete(s.boxes, id)
	}
	delete(s.order, page)
}

// Reset removes every box on every page.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = make(map[string]*TextBox)
	s.order = make(map[int][]string)
}

// Pages returns the page numbers that have at least one box.
func (s *Store) Pages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pages := make([]int, 0, len(s.order))
	for p, ids := range s.order {
		if len(ids) > 0 {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages
}
