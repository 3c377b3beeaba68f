package tactile

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestRenderToSVG(t *testing.T) {
	store := NewFeatureStore(testPlan())
	r := NewPlanRenderer(store)

	var buf bytes.Buffer
	if err := r.RenderToSVG(&buf); err != nil {
		t.Fatalf("RenderToSVG() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Error("output is not an SVG document")
	}
	if !strings.Contains(out, "<path") {
		t.Error("output has no rendered paths")
	}
}

func TestRenderToSVGEmptyPlan(t *testing.T) {
	store := NewFeatureStore(&FloorPlan{})
	r := NewPlanRenderer(store)

	var buf bytes.Buffer
	if err := r.RenderToSVG(&buf); err != nil {
		t.Fatalf("RenderToSVG() on empty plan error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty plan produced no output")
	}
}

func TestRenderToSVGWithGrid(t *testing.T) {
	store := NewFeatureStore(testPlan())
	r := NewPlanRenderer(store)
	r.GridSpacing = 20

	var plain, gridded bytes.Buffer
	r.GridSpacing = 0
	if err := r.RenderToSVG(&plain); err != nil {
		t.Fatal(err)
	}
	r.GridSpacing = 20
	if err := r.RenderToSVG(&gridded); err != nil {
		t.Fatal(err)
	}

	if gridded.Len() <= plain.Len() {
		t.Error("grid spacing did not add grid geometry")
	}
}

func TestRenderToPNG(t *testing.T) {
	store := NewFeatureStore(testPlan())
	r := NewPlanRenderer(store)
	r.Viewport = Size{Width: 200, Height: 150}

	var buf bytes.Buffer
	if err := r.RenderToPNG(&buf); err != nil {
		t.Fatalf("RenderToPNG() error = %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a decodable PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Error("PNG has zero size")
	}
}
