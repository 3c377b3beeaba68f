package tactile

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultPadding is the screen-space padding (points) left around the map
// when fitting it into a viewport.
const DefaultPadding = 20.0

// Transform maps map-space coordinates onto screen space:
// screen = map*Scale + Offset. The same transform drives both rendering and
// hit-testing so the two can never disagree.
type Transform struct {
	Scale  float64
	Offset orb.Point
}

// ComputeScaleAndOffset fits mapRect into the viewport minus padding on each
// axis, preserving aspect ratio, and centers the scaled rect. Degenerate
// input (zero-extent map rect or viewport) returns the identity transform.
func ComputeScaleAndOffset(viewport Size, mapRect orb.Bound, padding float64) Transform {
	mapW := mapRect.Max[0] - mapRect.Min[0]
	mapH := mapRect.Max[1] - mapRect.Min[1]
	availW := viewport.Width - 2*padding
	availH := viewport.Height - 2*padding

	if mapW <= 0 || mapH <= 0 || availW <= 0 || availH <= 0 {
		return Transform{Scale: 1}
	}

	scale := math.Min(availW/mapW, availH/mapH)

	// Center the scaled map rect in the viewport.
	offsetX := (viewport.Width-mapW*scale)/2 - mapRect.Min[0]*scale
	offsetY := (viewport.Height-mapH*scale)/2 - mapRect.Min[1]*scale

	return Transform{Scale: scale, Offset: orb.Point{offsetX, offsetY}}
}

// ToScreen converts a map-space point to screen space.
func ToScreen(p orb.Point, t Transform) orb.Point {
	return orb.Point{p[0]*t.Scale + t.Offset[0], p[1]*t.Scale + t.Offset[1]}
}

// ToMap converts a screen-space point back to map space. It is the exact
// algebraic inverse of ToScreen. A degenerate transform (zero scale) passes
// the point through unchanged.
func ToMap(p orb.Point, t Transform) orb.Point {
	if t.Scale == 0 {
		return p
	}
	return orb.Point{(p[0] - t.Offset[0]) / t.Scale, (p[1] - t.Offset[1]) / t.Scale}
}

// PointInPolygon reports whether p lies inside the polygon using the standard
// ray-casting crossing test. Polygons with fewer than 3 points are never
// containing. Coordinate entries with fewer than two components are skipped.
// Edges with near-zero y-span are skipped to avoid unstable intercepts.
// Exact-boundary points follow the usual ray-casting ambiguity and may
// classify either way.
func PointInPolygon(p orb.Point, polygon [][]float64) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		pi, pj := polygon[i], polygon[j]
		if len(pi) < 2 || len(pj) < 2 {
			j = i
			continue
		}

		xi, yi := pi[0], pi[1]
		xj, yj := pj[0], pj[1]

		if (yi > p[1]) != (yj > p[1]) && math.Abs(yj-yi) > 1e-9 {
			intercept := (p[1]-yi)*(xj-xi)/(yj-yi) + xi
			if p[0] < intercept {
				inside = !inside
			}
		}
		j = i
	}

	return inside
}

// Centroid returns the arithmetic mean of the valid (>=2 component) points.
// An empty or fully-invalid set yields the origin.
func Centroid(coords [][]float64) orb.Point {
	var sumX, sumY float64
	n := 0
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		sumX += c[0]
		sumY += c[1]
		n++
	}
	if n == 0 {
		return orb.Point{}
	}
	return orb.Point{sumX / float64(n), sumY / float64(n)}
}
