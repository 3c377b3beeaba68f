package tactile

import (
	"encoding/json"
	"testing"
)

func TestPlanToGeoJSON(t *testing.T) {
	plan := testPlan()
	fc := PlanToGeoJSON(plan)

	if len(fc.Features) != 3 {
		t.Fatalf("collection has %d features, want 3", len(fc.Features))
	}

	first := fc.Features[0]
	if first.ID != "room-101" {
		t.Errorf("feature ID = %v", first.ID)
	}
	if first.Properties["name"] != "Room 101" || first.Properties["type"] != "room" {
		t.Errorf("properties = %v", first.Properties)
	}
	if first.Geometry.GeoJSONType() != "Polygon" {
		t.Errorf("geometry type = %s", first.Geometry.GeoJSONType())
	}
}

func TestPlanToGeoJSONClosesRings(t *testing.T) {
	plan := &FloorPlan{Features: []Feature{
		{ID: "open", Type: FeatureRoom, Name: "Open",
			Coordinates: [][]float64{{0, 0}, {0, 10}, {10, 10}, {10, 0}}},
	}}

	data, err := PlanGeoJSONBytes(plan)
	if err != nil {
		t.Fatalf("PlanGeoJSONBytes() error = %v", err)
	}

	var doc struct {
		Features []struct {
			Geometry struct {
				Coordinates [][][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	ring := doc.Features[0].Geometry.Coordinates[0]
	if len(ring) != 5 {
		t.Fatalf("ring has %d points, want 5 (closed)", len(ring))
	}
	if ring[0][0] != ring[4][0] || ring[0][1] != ring[4][1] {
		t.Error("ring not closed")
	}
}

func TestPlanToGeoJSONSkipsDegenerate(t *testing.T) {
	plan := &FloorPlan{Features: []Feature{
		{ID: "bad", Type: FeatureRoom, Name: "Bad",
			Coordinates: [][]float64{{0, 0}, {1}, {2}}},
		{ID: "good", Type: FeatureRoom, Name: "Good",
			Coordinates: [][]float64{{0, 0}, {0, 10}, {10, 10}}},
	}}

	fc := PlanToGeoJSON(plan)
	if len(fc.Features) != 1 {
		t.Fatalf("collection has %d features, want 1", len(fc.Features))
	}
	if fc.Features[0].ID != "good" {
		t.Errorf("surviving feature = %v", fc.Features[0].ID)
	}
}
