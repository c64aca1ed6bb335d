package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"doc-annotator/internal/editlog"
	"doc-annotator/internal/overlay"
	"doc-annotator/internal/stroke"
	"doc-annotator/pkg/colorutil"
)

func sampleState(t *testing.T) (*editlog.Log, *overlay.Store) {
	t.Helper()
	log := editlog.New()
	log.Append(0, stroke.Action{Kind: stroke.KindBlur, Strokes: []stroke.Stroke{
		{X: 10, Y: 12, Size: 30, Intensity: 4},
		{X: 14, Y: 16, Size: 30, Intensity: 4},
	}})
	log.Append(2, stroke.Action{Kind: stroke.KindErase, Strokes: []stroke.Stroke{
		{X: 5, Y: 5, Size: 8},
	}})

	boxes := overlay.NewStore()
	id := boxes.Create(0, 40, 50, 18, colorutil.Red)
	boxes.SetText(id, "CONFIDENTIAL")
	boxes.SetEditing(id, false)
	return log, boxes
}

func TestSaveLoadRoundTrip(t *testing.T) {
	log, boxes := sampleState(t)

	proj := New("contract")
	proj.CaptureState(log, boxes)

	dir := t.TempDir()
	path := filepath.Join(dir, "contract.annproj")
	proj.SetDocument(path, filepath.Join(dir, "docs", "contract.pdf"))
	if err := proj.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Version != 1 || loaded.Name != "contract" {
		t.Errorf("loaded header = %d %q", loaded.Version, loaded.Name)
	}
	if diff := cmp.Diff(proj.Edits, loaded.Edits); diff != "" {
		t.Errorf("edits changed across save/load (-saved +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(proj.Labels, loaded.Labels); diff != "" {
		t.Errorf("labels changed across save/load (-saved +loaded):\n%s", diff)
	}

	restoredLog := editlog.New()
	restoredBoxes := overlay.NewStore()
	if err := loaded.RestoreState(restoredLog, restoredBoxes); err != nil {
		t.Fatal(err)
	}
	for _, pg := range []int{0, 1, 2} {
		if diff := cmp.Diff(log.ActionsFor(pg), restoredLog.ActionsFor(pg)); diff != "" {
			t.Errorf("page %d history changed across restore (-orig +restored):\n%s", pg, diff)
		}
	}
	origBoxes := boxes.BoxesFor(0)
	gotBoxes := restoredBoxes.BoxesFor(0)
	if diff := cmp.Diff(origBoxes, gotBoxes); diff != "" {
		t.Errorf("labels changed across restore (-orig +restored):\n%s", diff)
	}
}

func TestFileSchema(t *testing.T) {
	log, boxes := sampleState(t)
	proj := New("contract")
	proj.CaptureState(log, boxes)

	path := filepath.Join(t.TempDir(), "contract.annproj")
	if err := proj.Save(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`"version": 1`,
		`"kind": "blur"`,
		`"kind": "erase"`,
		`"color": "#ff0000"`,
		`"font_size": 18`,
		`"text": "CONFIDENTIAL"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("project file missing %s", want)
		}
	}
	// Editing state is transient and must never be persisted.
	if strings.Contains(strings.ToLower(string(data)), "editing") {
		t.Error("project file leaks editing state")
	}
}

func TestRestoreStateReplacesExisting(t *testing.T) {
	log, boxes := sampleState(t)
	proj := New("contract")
	proj.CaptureState(log, boxes)

	target := editlog.New()
	target.Append(7, stroke.Action{Kind: stroke.KindErase, Strokes: []stroke.Stroke{{X: 1, Y: 1, Size: 4}}})
	targetBoxes := overlay.NewStore()
	targetBoxes.Create(7, 1, 1, 12, colorutil.Black)

	if err := proj.RestoreState(target, targetBoxes); err != nil {
		t.Fatal(err)
	}
	if target.ActionCount(7) != 0 {
		t.Error("restore kept stale edit history")
	}
	if targetBoxes.CountFor(7) != 0 {
		t.Error("restore kept stale labels")
	}
	if target.ActionCount(0) != 1 || targetBoxes.CountFor(0) != 1 {
		t.Error("restore did not install the saved state")
	}
}

func TestRestoreStateBadColor(t *testing.T) {
	proj := New("broken")
	proj.Labels = map[int][]Label{
		0: {{ID: "a", Text: "x", FontSize: 12, Color: "red"}},
	}
	if err := proj.RestoreState(editlog.New(), overlay.NewStore()); err == nil {
		t.Error("restore accepted a malformed color")
	}
}

func TestDocumentPathIsRelative(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "work", "contract.annproj")
	docPath := filepath.Join(dir, "docs", "contract.pdf")

	proj := New("contract")
	proj.SetDocument(projPath, docPath)

	if filepath.IsAbs(proj.DocumentPath) {
		t.Errorf("stored document path %q is absolute", proj.DocumentPath)
	}
	if got := proj.GetDocumentPath(projPath); got != docPath {
		t.Errorf("GetDocumentPath = %q, want %q", got, docPath)
	}
}

func TestGetDocumentPathEmpty(t *testing.T) {
	proj := New("empty")
	if got := proj.GetDocumentPath("/tmp/p.annproj"); got != "" {
		t.Errorf("GetDocumentPath = %q for a project with no document", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.annproj")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}
