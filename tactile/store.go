package tactile

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultBoundsTolerance is the screen-point slack used when deciding whether
// a touch is near the floor plan's edge rather than far outside it.
const DefaultBoundsTolerance = 2.0

// boundsPaddingFraction pads the computed bounding rect by this fraction of
// the extent on each side.
const boundsPaddingFraction = 0.05

// FeatureStore owns the immutable feature catalog and its bounding rect.
// All spatial queries go through it; it never mutates after construction.
type FeatureStore struct {
	features []Feature
	bounds   orb.Bound
}

// NewFeatureStore builds a store from a loaded plan. Bounds are computed
// exactly once here.
func NewFeatureStore(plan *FloorPlan) *FeatureStore {
	return &FeatureStore{
		features: plan.Features,
		bounds:   ComputeBounds(plan.Features),
	}
}

// ComputeBounds returns the axis-aligned bounding rect of all valid feature
// coordinates, padded by 5% of the extent on each side. An empty or
// degenerate (zero-extent) feature set yields the default 100x100 box.
func ComputeBounds(features []Feature) orb.Bound {
	minX, minY := 0.0, 0.0
	maxX, maxY := 0.0, 0.0
	found := false

	for _, f := range features {
		for _, c := range f.Coordinates {
			if len(c) < 2 {
				continue
			}
			if !found {
				minX, maxX = c[0], c[0]
				minY, maxY = c[1], c[1]
				found = true
				continue
			}
			if c[0] < minX {
				minX = c[0]
			}
			if c[0] > maxX {
				maxX = c[0]
			}
			if c[1] < minY {
				minY = c[1]
			}
			if c[1] > maxY {
				maxY = c[1]
			}
		}
	}

	w := maxX - minX
	h := maxY - minY
	if !found || w <= 0 || h <= 0 {
		return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{100, 100}}
	}

	padX := w * boundsPaddingFraction
	padY := h * boundsPaddingFraction
	return orb.Bound{
		Min: orb.Point{minX - padX, minY - padY},
		Max: orb.Point{maxX + padX, maxY + padY},
	}
}

// Bounds returns the padded bounding rect computed at load time.
func (s *FeatureStore) Bounds() orb.Bound {
	return s.bounds
}

// Features returns the catalog in insertion order.
func (s *FeatureStore) Features() []Feature {
	return s.features
}

// Count returns the number of features in the catalog.
func (s *FeatureStore) Count() int {
	return len(s.features)
}

// FeatureByID returns the feature with the given id, or nil.
func (s *FeatureStore) FeatureByID(id string) *Feature {
	for i := range s.features {
		if s.features[i].ID == id {
			return &s.features[i]
		}
	}
	return nil
}

// FeatureAt returns the first feature (in insertion order) whose polygon
// contains the map-space point, or nil. Overlapping polygons resolve to the
// earliest inserted; there is no z-order model.
func (s *FeatureStore) FeatureAt(mapPoint orb.Point) *Feature {
	for i := range s.features {
		if PointInPolygon(mapPoint, s.features[i].Coordinates) {
			return &s.features[i]
		}
	}
	return nil
}

// ScreenTransform returns the transform that fits this store's bounds into
// the viewport with the default padding.
func (s *FeatureStore) ScreenTransform(viewport Size) Transform {
	return ComputeScaleAndOffset(viewport, s.bounds, DefaultPadding)
}

// NearestFeatures returns up to limit features ordered by ascending Euclidean
// distance from their centroids to the screen point (converted to map space).
// Ties keep insertion order.
func (s *FeatureStore) NearestFeatures(screenPoint orb.Point, viewport Size, limit int) []Feature {
	if limit <= 0 || len(s.features) == 0 {
		return nil
	}

	mapPoint := ToMap(screenPoint, s.ScreenTransform(viewport))

	ordered := make([]Feature, len(s.features))
	copy(ordered, s.features)
	sort.SliceStable(ordered, func(i, j int) bool {
		return planar.Distance(ordered[i].Centroid(), mapPoint) <
			planar.Distance(ordered[j].Centroid(), mapPoint)
	})

	if limit > len(ordered) {
		limit = len(ordered)
	}
	return ordered[:limit]
}

// IsWithinFloorPlanBounds reports whether the screen point falls inside the
// plan's bounding rect expanded by tolerance on all sides. Used to tell
// "near the edge" apart from "far outside".
func (s *FeatureStore) IsWithinFloorPlanBounds(screenPoint orb.Point, viewport Size, tolerance float64) bool {
	t := s.ScreenTransform(viewport)
	mapPoint := ToMap(screenPoint, t)

	// Tolerance is expressed in screen points; convert to map units.
	tol := tolerance
	if t.Scale > 0 {
		tol = tolerance / t.Scale
	}

	return mapPoint[0] >= s.bounds.Min[0]-tol &&
		mapPoint[0] <= s.bounds.Max[0]+tol &&
		mapPoint[1] >= s.bounds.Min[1]-tol &&
		mapPoint[1] <= s.bounds.Max[1]+tol
}
