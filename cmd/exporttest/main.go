// Command exporttest runs the export pipeline headlessly and reports the
// result. Exit status is 0 on success, 2 when assembly degraded to a preview
// image, and 1 on failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"doc-annotator/internal/app"
	"doc-annotator/internal/export"
)

func main() {
	doc := flag.String("d", "", "Path to a PDF document (export without edits)")
	proj := flag.String("p", "", "Path to an .annproj project (export with its edits)")
	out := flag.String("o", "annotated.pdf", "Output PDF path")
	scale := flag.Float64("scale", 0, "Render scale override (0 = project or default)")
	flag.Parse()

	if (*doc == "") == (*proj == "") {
		fmt.Println("Usage: exporttest (-d <document.pdf> | -p <project.annproj>) [-o <out.pdf>] [-scale <f>]")
		os.Exit(1)
	}

	ctx := context.Background()
	state := app.NewState()

	if *proj != "" {
		fmt.Printf("=== Loading project: %s ===\n", *proj)
		if err := state.LoadProject(ctx, *proj); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load project: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("=== Opening document: %s ===\n", *doc)
		if *scale > 0 {
			state.Controller.SetScale(*scale)
		}
		if err := state.OpenDocument(ctx, *doc); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open document: %v\n", err)
			os.Exit(1)
		}
	}
	if *proj != "" && *scale > 0 {
		state.Controller.SetScale(*scale)
	}

	if state.DocumentPath == "" {
		fmt.Fprintln(os.Stderr, "Project records no document; nothing to export")
		os.Exit(1)
	}

	total := state.Controller.TotalPages()
	actions, strokes, labels := 0, 0, 0
	for _, page := range state.Log.Pages() {
		actions += state.Log.ActionCount(page)
		strokes += state.Log.StrokeCount(page)
	}
	for _, page := range state.Boxes.Pages() {
		labels += state.Boxes.CountFor(page)
	}
	fmt.Printf("%d pages, %d edit actions (%d strokes), %d labels\n",
		total, actions, strokes, labels)

	fmt.Printf("\n=== Exporting to %s ===\n", *out)
	pipe := export.NewPipeline(state.Controller, state.Boxes)
	pipe.Progress = func(pageIndex, pages int) {
		fmt.Printf("  rendering page %d/%d\n", pageIndex+1, pages)
	}

	res, err := pipe.Run(ctx, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	if res.Degraded {
		fmt.Fprintf(os.Stderr, "Assembly failed (%v); wrote preview image %s\n",
			res.AssembleErr, res.OutputPath)
		os.Exit(2)
	}
	fmt.Printf("Wrote %d pages to %s\n", res.Pages, res.OutputPath)
}
