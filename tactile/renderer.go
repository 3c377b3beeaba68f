package tactile

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// featureFill returns the fill color for a feature type. The palette keeps
// high contrast between adjacent region types so printed tactile-overlay
// masters stay legible.
func featureFill(t FeatureType) color.RGBA {
	switch t {
	case FeatureRoom:
		return color.RGBA{173, 216, 230, 255} // light blue
	case FeatureCorridor:
		return color.RGBA{245, 245, 220, 255} // beige
	case FeatureElevator:
		return color.RGBA{255, 214, 140, 255} // amber
	case FeatureStairs:
		return color.RGBA{209, 178, 255, 255} // lavender
	case FeatureBathroom:
		return color.RGBA{152, 251, 152, 255} // pale green
	case FeatureLandmark:
		return color.RGBA{255, 160, 160, 255} // salmon
	}
	return color.RGBA{220, 220, 220, 255}
}

// PlanRenderer renders a floor plan as vector graphics. It uses the same
// viewport fit transform as hit-testing, so rendered output and touch
// resolution can never drift apart.
type PlanRenderer struct {
	Store       *FeatureStore
	Viewport    Size
	GridSpacing float64           // grid line spacing in map units; 0 disables
	Resolution  canvas.Resolution // PNG output resolution
	StrokeWidth float64
}

// NewPlanRenderer creates a renderer with default settings.
func NewPlanRenderer(store *FeatureStore) *PlanRenderer {
	return &PlanRenderer{
		Store:       store,
		Viewport:    Size{Width: 1024, Height: 768},
		Resolution:  canvas.DPI(150),
		StrokeWidth: 2.0,
	}
}

// canvasRenderer is the subset both the SVG and rasterizer backends provide.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the plan as an SVG document.
func (r *PlanRenderer) RenderToSVG(w io.Writer) error {
	svgRenderer := svg.New(w, r.Viewport.Width, r.Viewport.Height, nil)
	r.renderToCanvas(svgRenderer)
	return svgRenderer.Close()
}

// RenderToPNG writes the plan as a PNG image.
func (r *PlanRenderer) RenderToPNG(w io.Writer) error {
	rast := rasterizer.New(r.Viewport.Width, r.Viewport.Height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast)
	return png.Encode(w, rast)
}

func (r *PlanRenderer) renderToCanvas(renderer canvasRenderer) {
	// White background
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(r.Viewport.Width, r.Viewport.Height), bgStyle, canvas.Identity)

	t := r.Store.ScreenTransform(r.Viewport)

	// Filled feature polygons with a dark outline.
	for _, f := range r.Store.Features() {
		cp := &canvas.Path{}
		started := false
		for _, c := range f.Coordinates {
			if len(c) < 2 {
				continue
			}
			sp := ToScreen([2]float64{c[0], c[1]}, t)
			if !started {
				cp.MoveTo(sp[0], sp[1])
				started = true
			} else {
				cp.LineTo(sp[0], sp[1])
			}
		}
		if !started {
			continue
		}
		cp.Close()

		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: featureFill(f.Type)}
		style.Stroke = canvas.Paint{Color: canvas.Black}
		style.StrokeWidth = r.StrokeWidth
		renderer.RenderPath(cp, style, canvas.Identity)
	}

	// Grid lines over the plan bounds.
	if r.GridSpacing > 0 {
		bounds := r.Store.Bounds()
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = 0.5
		gridStyle.Dashes = []float64{4.0, 4.0}

		for x := math.Floor(bounds.Min[0]/r.GridSpacing) * r.GridSpacing; x <= bounds.Max[0]; x += r.GridSpacing {
			p := &canvas.Path{}
			a := ToScreen([2]float64{x, bounds.Min[1]}, t)
			b := ToScreen([2]float64{x, bounds.Max[1]}, t)
			p.MoveTo(a[0], a[1])
			p.LineTo(b[0], b[1])
			renderer.RenderPath(p, gridStyle, canvas.Identity)
		}
		for y := math.Floor(bounds.Min[1]/r.GridSpacing) * r.GridSpacing; y <= bounds.Max[1]; y += r.GridSpacing {
			p := &canvas.Path{}
			a := ToScreen([2]float64{bounds.Min[0], y}, t)
			b := ToScreen([2]float64{bounds.Max[0], y}, t)
			p.MoveTo(a[0], a[1])
			p.LineTo(b[0], b[1])
			renderer.RenderPath(p, gridStyle, canvas.Identity)
		}
	}

	// Centroid markers help verify hit-test alignment against the print.
	markerStyle := canvas.DefaultStyle
	markerStyle.Fill = canvas.Paint{Color: canvas.Black}
	markerStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	for _, f := range r.Store.Features() {
		sp := ToScreen(f.Centroid(), t)
		marker := canvas.Circle(2.5).Translate(sp[0], sp[1])
		renderer.RenderPath(marker, markerStyle, canvas.Identity)
	}
}
