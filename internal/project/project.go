// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"doc-annotator/internal/editlog"
	"doc-annotator/internal/overlay"
	"doc-annotator/internal/page"
	"doc-annotator/internal/stroke"
	"doc-annotator/pkg/colorutil"
)

// File represents an annotator project file (.annproj).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Document path (relative to project file)
	DocumentPath string `json:"document,omitempty"`

	// Render scale the pages were annotated at. Stroke and label
	// coordinates are in raster pixels, so they only line up when the
	// document is re-rasterized at the same scale.
	Scale float64 `json:"scale,omitempty"`

	// Per-page state, keyed by zero-based page index.
	Edits  map[int][]stroke.Action `json:"edits,omitempty"`
	Labels map[int][]Label         `json:"labels,omitempty"`
}

// Label is the serialized form of a text box.
type Label struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"font_size"`
	Color    string  `json:"color"` // #rrggbb
}

// New creates a new project file with default settings.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
		Scale:    page.DefaultScale,
	}
}

// Load loads a project from a .annproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetDocument sets the document path (relative to project).
func (p *File) SetDocument(projectPath, docPath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), docPath)
	if err != nil {
		p.DocumentPath = docPath
	} else {
		p.DocumentPath = rel
	}
	p.Modified = time.Now()
}

// GetDocumentPath returns the absolute path to the annotated document.
func (p *File) GetDocumentPath(projectPath string) string {
	if p.DocumentPath == "" {
		return ""
	}
	if filepath.IsAbs(p.DocumentPath) {
		return p.DocumentPath
	}
	return filepath.Join(filepath.Dir(projectPath), p.DocumentPath)
}

// CaptureState records the current edit history and text boxes into the
// file, replacing whatever it previously held.
func (p *File) CaptureState(log *editlog.Log, boxes *overlay.Store) {
	p.Edits = nil
	for _, pg := range log.Pages() {
		if p.Edits == nil {
			p.Edits = make(map[int][]stroke.Action)
		}
		p.Edits[pg] = log.ActionsFor(pg)
	}

	p.Labels = nil
	for _, pg := range boxes.Pages() {
		for _, box := range boxes.BoxesFor(pg) {
			if p.Labels == nil {
				p.Labels = make(map[int][]Label)
			}
			p.Labels[pg] = append(p.Labels[pg], Label{
				ID:       box.ID,
				X:        box.X,
				Y:        box.Y,
				Text:     box.Text,
				FontSize: box.FontSize,
				Color:    colorutil.Hex(box.Color),
			})
		}
	}
}

// RestoreState replaces the contents of log and boxes with the file's
// saved history and labels.
func (p *File) RestoreState(log *editlog.Log, boxes *overlay.Store) error {
	log.Reset()
	for _, pg := range sortedPages(p.Edits) {
		log.Restore(pg, p.Edits[pg])
	}

	boxes.Reset()
	for _, pg := range sortedPages(p.Labels) {
		for _, l := range p.Labels[pg] {
			c, err := colorutil.ParseHex(l.Color)
			if err != nil {
				return fmt.Errorf("failed to restore label %s: %w", l.ID, err)
			}
			boxes.Restore(overlay.TextBox{
				ID:       l.ID,
				Page:     pg,
				X:        l.X,
				Y:        l.Y,
				Text:     l.Text,
				FontSize: l.FontSize,
				Color:    c,
			})
		}
	}
	return nil
}

func sortedPages[V any](m map[int]V) []int {
	pages := make([]int, 0, len(m))
	for p := range m {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}
