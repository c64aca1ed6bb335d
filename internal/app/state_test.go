package app

import (
	"context"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"doc-annotator/internal/editlog"
	"doc-annotator/internal/overlay"
	"doc-annotator/internal/page"
	"doc-annotator/internal/raster"
	"doc-annotator/internal/stroke"
	"doc-annotator/pkg/colorutil"
)

type stubRasterizer struct {
	pages int
	size  int
}

func (s *stubRasterizer) PageCount(ctx context.Context, docPath string) (int, error) {
	return s.pages, nil
}

func (s *stubRasterizer) Rasterize(ctx context.Context, docPath string, pageIndex int, scale float64) (*raster.Raster, error) {
	c := color.RGBA{R: uint8(50 + 40*pageIndex), G: 100, B: 150, A: 255}
	return raster.NewFilled(s.size, s.size, c), nil
}

func newTestState(pages, size int) *State {
	log := editlog.New()
	return &State{
		Log:        log,
		Boxes:      overlay.NewStore(),
		Controller: page.NewController(&stubRasterizer{pages: pages, size: size}, log),
		listeners:  make(map[EventType][]EventListener),
	}
}

// record registers a listener for each event type and returns the sequence
// of fired events. All state calls in these tests are synchronous.
func record(s *State, types ...EventType) *[]EventType {
	fired := &[]EventType{}
	for _, et := range types {
		et := et
		s.On(et, func(data interface{}) {
			*fired = append(*fired, et)
		})
	}
	return fired
}

func TestOpenDocumentResetsHistory(t *testing.T) {
	s := newTestState(3, 40)
	s.Log.Append(5, stroke.Action{Kind: stroke.KindErase, Strokes: []stroke.Stroke{{X: 1, Y: 1, Size: 4}}})
	s.Boxes.Create(5, 1, 1, 12, colorutil.Black)

	fired := record(s, EventDocumentLoaded, EventPageReady)
	if err := s.OpenDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatal(err)
	}

	if s.Log.ActionCount(5) != 0 || s.Boxes.CountFor(5) != 0 {
		t.Error("opening a document kept the previous document's history")
	}
	if s.DocumentPath != "doc.pdf" {
		t.Errorf("DocumentPath = %q", s.DocumentPath)
	}
	if s.Controller.CurrentPage() != 0 {
		t.Errorf("current page = %d, want 0", s.Controller.CurrentPage())
	}
	want := []EventType{EventDocumentLoaded, EventPageReady}
	if diff := cmp.Diff(want, *fired); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestCommitAction(t *testing.T) {
	s := newTestState(1, 40)
	if err := s.OpenDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatal(err)
	}
	s.Modified = false

	fired := record(s, EventEditsChanged)
	s.CommitAction(0, stroke.Action{Kind: stroke.KindErase, Strokes: []stroke.Stroke{{X: 10, Y: 10, Size: 8}}})

	if s.Log.ActionCount(0) != 1 {
		t.Errorf("action count = %d, want 1", s.Log.ActionCount(0))
	}
	if !s.Modified {
		t.Error("committing an action did not mark the project modified")
	}
	if len(*fired) != 1 {
		t.Errorf("EventEditsChanged fired %d times, want 1", len(*fired))
	}

	// An empty gesture (press and release without moving) commits nothing.
	s.CommitAction(0, stroke.Action{Kind: stroke.KindErase})
	if s.Log.ActionCount(0) != 1 || len(*fired) != 1 {
		t.Error("an empty gesture was committed")
	}
}

func TestClearPage(t *testing.T) {
	s := newTestState(2, 40)
	if err := s.OpenDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatal(err)
	}
	s.CommitAction(0, stroke.Action{Kind: stroke.KindErase, Strokes: []stroke.Stroke{{X: 10, Y: 10, Size: 8}}})
	s.CreateLabel(0, 5, 5, 14, colorutil.Red)

	fired := record(s, EventPageCleared, EventPageReady)
	if err := s.ClearPage(context.Background()); err != nil {
		t.Fatal(err)
	}

	if s.Log.ActionCount(0) != 0 {
		t.Error("clear left edits behind")
	}
	if s.Boxes.CountFor(0) != 0 {
		t.Error("clear left labels behind")
	}
	want := []EventType{EventPageCleared, EventPageReady}
	if diff := cmp.Diff(want, *fired); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}

	// The redisplayed page is back to its rasterized content.
	got := s.Controller.Working().Image().RGBAAt(10, 10)
	if got != (color.RGBA{R: 50, G: 100, B: 150, A: 255}) {
		t.Errorf("pixel after clear = %v, want the original page color", got)
	}
}

func TestClearPageWithoutDocument(t *testing.T) {
	s := newTestState(0, 40)
	if err := s.ClearPage(context.Background()); err != nil {
		t.Errorf("ClearPage with no page loaded: %v", err)
	}
}

func TestLabelOperations(t *testing.T) {
	s := newTestState(1, 40)
	if err := s.OpenDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatal(err)
	}

	fired := record(s, EventLabelsChanged)
	id := s.CreateLabel(0, 10, 12, 18, colorutil.Blue)

	box, ok := s.Boxes.Get(id)
	if !ok {
		t.Fatal("created label not found")
	}
	if box.Text != "" || !box.IsEditing {
		t.Errorf("new label = %+v, want empty text in editing mode", box)
	}

	s.SetLabelText(id, "APPROVED")
	s.MoveLabel(id, 20, 24)
	s.SetLabelStyle(id, 22, colorutil.Red)
	s.SetLabelEditing(id, false)

	box, _ = s.Boxes.Get(id)
	if box.Text != "APPROVED" || box.X != 20 || box.Y != 24 || box.FontSize != 22 || box.IsEditing {
		t.Errorf("label after edits = %+v", box)
	}
	if len(*fired) != 5 {
		t.Errorf("EventLabelsChanged fired %d times, want 5", len(*fired))
	}

	s.DeleteLabel(id)
	if _, ok := s.Boxes.Get(id); ok {
		t.Error("deleted label still present")
	}

	// Operations on unknown ids are no-ops and fire nothing.
	before := len(*fired)
	s.MoveLabel("no-such-id", 1, 1)
	s.SetLabelText("no-such-id", "x")
	s.DeleteLabel("no-such-id")
	if len(*fired) != before {
		t.Error("operations on a missing label fired events")
	}
}

func TestEditingFlagDoesNotMarkModified(t *testing.T) {
	s := newTestState(1, 40)
	if err := s.OpenDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatal(err)
	}
	id := s.CreateLabel(0, 10, 12, 18, colorutil.Blue)
	s.Modified = false

	s.SetLabelEditing(id, false)
	if s.Modified {
		t.Error("toggling the editing flag marked the project modified")
	}
}

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "review.annproj")

	s := newTestState(2, 40)
	if err := s.OpenDocument(context.Background(), filepath.Join(dir, "doc.pdf")); err != nil {
		t.Fatal(err)
	}
	s.CommitAction(0, stroke.Action{Kind: stroke.KindErase, Strokes: []stroke.Stroke{{X: 10, Y: 10, Size: 8}}})
	id := s.CreateLabel(1, 5, 6, 16, colorutil.Red)
	s.SetLabelText(id, "REDACTED")

	if err := s.SaveProject(projPath); err != nil {
		t.Fatal(err)
	}
	if s.Modified {
		t.Error("saving did not clear the modified flag")
	}

	restored := newTestState(2, 40)
	fired := record(restored, EventProjectLoaded)
	if err := restored.LoadProject(context.Background(), projPath); err != nil {
		t.Fatal(err)
	}

	if restored.Modified {
		t.Error("a freshly loaded project is marked modified")
	}
	if len(*fired) != 1 {
		t.Error("EventProjectLoaded did not fire")
	}
	if diff := cmp.Diff(s.Log.ActionsFor(0), restored.Log.ActionsFor(0)); diff != "" {
		t.Errorf("restored history differs (-saved +restored):\n%s", diff)
	}
	boxes := restored.Boxes.BoxesFor(1)
	if len(boxes) != 1 || boxes[0].Text != "REDACTED" || boxes[0].ID != id {
		t.Errorf("restored labels = %+v", boxes)
	}

	// The displayed page carries the restored erase stroke.
	got := restored.Controller.Working().Image().RGBAAt(10, 10)
	if got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("pixel after restore = %v, want white from the erase", got)
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	s := newTestState(1, 40)
	if err := s.LoadProject(context.Background(), filepath.Join(t.TempDir(), "nope.annproj")); err == nil {
		t.Error("loading a missing project succeeded")
	}
}

func TestExportRestoresDisplayedPage(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "out.pdf")

	s := newTestState(3, 40)
	ctx := context.Background()
	if err := s.OpenDocument(ctx, "doc.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadPage(ctx, 1); err != nil {
		t.Fatal(err)
	}

	fired := record(s, EventPageReady, EventExportFinished)
	res, err := s.Export(ctx, outPath)
	if err != nil {
		t.Fatal(err)
	}

	if res.Degraded || res.Pages != 3 {
		t.Errorf("result = %+v, want 3 pages, not degraded", res)
	}
	if s.Controller.CurrentPage() != 1 {
		t.Errorf("current page after export = %d, want the page displayed before, 1",
			s.Controller.CurrentPage())
	}
	want := []EventType{EventPageReady, EventExportFinished}
	if diff := cmp.Diff(want, *fired); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}
