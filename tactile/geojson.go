package tactile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// PlanToGeoJSON converts a floor plan to a GeoJSON FeatureCollection so GIS
// and analysis tooling can consume it. Coordinate entries with fewer than
// two components are skipped, matching the geometric computations.
func PlanToGeoJSON(plan *FloorPlan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, f := range plan.Features {
		ring := make(orb.Ring, 0, len(f.Coordinates)+1)
		for _, c := range f.Coordinates {
			if len(c) < 2 {
				continue
			}
			ring = append(ring, orb.Point{c[0], c[1]})
		}
		if len(ring) < 3 {
			continue
		}
		// Close the ring if the source polygon left it open.
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}

		gf := geojson.NewFeature(orb.Polygon{ring})
		gf.ID = f.ID
		gf.Properties["id"] = f.ID
		gf.Properties["name"] = f.Name
		gf.Properties["type"] = string(f.Type)
		fc.Append(gf)
	}

	return fc
}

// PlanGeoJSONBytes renders the plan's GeoJSON document.
func PlanGeoJSONBytes(plan *FloorPlan) ([]byte, error) {
	data, err := PlanToGeoJSON(plan).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshaling plan GeoJSON: %w", err)
	}
	return data, nil
}
