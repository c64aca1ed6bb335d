// Command pageinfo prints the page count and per-page dimensions of a PDF,
// both in points and in pixels at the given render scale.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"doc-annotator/internal/page"
	"doc-annotator/internal/pdf"
)

func main() {
	scale := flag.Float64("scale", page.DefaultScale, "Render scale used for the pixel dimensions")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: pageinfo [-scale <f>] <document.pdf>")
		os.Exit(1)
	}
	docPath := flag.Arg(0)

	ctx := context.Background()
	r := pdf.NewRasterizer()

	count, err := r.PageCount(ctx, docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", docPath, err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d pages\n", docPath, count)

	sizes, err := r.PageSizes(ctx, docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read page sizes: %v\n", err)
		os.Exit(1)
	}

	dpi := float64(pdf.BaseDPI) * *scale
	fmt.Printf("Pixel dimensions at scale %.1fx (%.0f DPI):\n", *scale, dpi)
	for i, size := range sizes {
		pxW := int(size.WidthPts / float64(pdf.BaseDPI) * dpi)
		pxH := int(size.HeightPts / float64(pdf.BaseDPI) * dpi)
		fmt.Printf("  page %d: %.0f x %.0f pts  (%d x %d px)\n",
			i+1, size.WidthPts, size.HeightPts, pxW, pxH)
	}
}
