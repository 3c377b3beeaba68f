package tactile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validPlanJSON = `{
  "features": [
    {"id": "room-101", "type": "room", "name": "Room 101",
     "coordinates": [[0,0],[0,40],[40,40],[40,0]]},
    {"id": "stairs-n", "type": "stairs", "name": "North Stairs",
     "coordinates": [[40,0],[40,20],[60,20],[60,0]]}
  ]
}`

func TestParsePlanJSON(t *testing.T) {
	plan, err := ParsePlanJSON([]byte(validPlanJSON))
	if err != nil {
		t.Fatalf("ParsePlanJSON() error = %v", err)
	}
	if len(plan.Features) != 2 {
		t.Fatalf("parsed %d features, want 2", len(plan.Features))
	}
	if plan.Features[0].ID != "room-101" || plan.Features[0].Type != FeatureRoom {
		t.Errorf("first feature = %+v", plan.Features[0])
	}
	if plan.Features[1].Name != "North Stairs" || plan.Features[1].Type != FeatureStairs {
		t.Errorf("second feature = %+v", plan.Features[1])
	}
}

func TestParsePlanJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{
			name:    "malformed json",
			json:    `{"features": [`,
			wantErr: "parsing plan JSON",
		},
		{
			name:    "missing id",
			json:    `{"features": [{"type": "room", "name": "A", "coordinates": [[0,0],[0,1],[1,1]]}]}`,
			wantErr: "id is required",
		},
		{
			name: "duplicate id",
			json: `{"features": [
				{"id": "a", "type": "room", "name": "A", "coordinates": [[0,0],[0,1],[1,1]]},
				{"id": "a", "type": "room", "name": "B", "coordinates": [[0,0],[0,1],[1,1]]}]}`,
			wantErr: "duplicate id",
		},
		{
			name:    "unknown feature type is fatal",
			json:    `{"features": [{"id": "a", "type": "atrium", "name": "A", "coordinates": [[0,0],[0,1],[1,1]]}]}`,
			wantErr: `unknown feature type "atrium"`,
		},
		{
			name:    "missing name",
			json:    `{"features": [{"id": "a", "type": "room", "coordinates": [[0,0],[0,1],[1,1]]}]}`,
			wantErr: "name is required",
		},
		{
			name:    "too few points",
			json:    `{"features": [{"id": "a", "type": "room", "name": "A", "coordinates": [[0,0],[0,1]]}]}`,
			wantErr: "at least 3 points",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlanJSON([]byte(tt.json))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParsePlanJSONEmptyPlan(t *testing.T) {
	plan, err := ParsePlanJSON([]byte(`{"features": []}`))
	if err != nil {
		t.Fatalf("empty plan rejected: %v", err)
	}
	if len(plan.Features) != 0 {
		t.Errorf("empty plan has %d features", len(plan.Features))
	}
}

func TestParsePlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(validPlanJSON), 0644); err != nil {
		t.Fatal(err)
	}

	plan, err := ParsePlanFile(path)
	if err != nil {
		t.Fatalf("ParsePlanFile() error = %v", err)
	}
	if len(plan.Features) != 2 {
		t.Errorf("parsed %d features, want 2", len(plan.Features))
	}

	if _, err := ParsePlanFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file did not error")
	}
}

func TestParseFeatureType(t *testing.T) {
	for _, valid := range []string{"room", "corridor", "elevator", "stairs", "bathroom", "landmark"} {
		if _, err := ParseFeatureType(valid); err != nil {
			t.Errorf("ParseFeatureType(%q) error = %v", valid, err)
		}
	}
	if _, err := ParseFeatureType("Room"); err == nil {
		t.Error("feature types should be case-sensitive")
	}
	if _, err := ParseFeatureType(""); err == nil {
		t.Error("empty feature type accepted")
	}
}

func TestSummarize(t *testing.T) {
	plan, err := ParsePlanJSON([]byte(validPlanJSON))
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(plan)
	if s.FeatureCount != 2 {
		t.Errorf("FeatureCount = %d, want 2", s.FeatureCount)
	}
	if s.ByType[FeatureRoom] != 1 || s.ByType[FeatureStairs] != 1 {
		t.Errorf("ByType = %v", s.ByType)
	}
	if len(s.Names) != 2 || s.Names[0] != "Room 101" {
		t.Errorf("Names = %v", s.Names)
	}
}

func TestSummarizeNamesLeftToRight(t *testing.T) {
	plan := &FloorPlan{Features: []Feature{
		{ID: "east", Type: FeatureRoom, Name: "East Wing",
			Coordinates: [][]float64{{80, 0}, {80, 10}, {90, 10}}},
		{ID: "west", Type: FeatureRoom, Name: "West Wing",
			Coordinates: [][]float64{{0, 0}, {0, 10}, {10, 10}}},
		{ID: "mid", Type: FeatureCorridor, Name: "Central Hall",
			Coordinates: [][]float64{{40, 0}, {40, 10}, {50, 10}}},
	}}

	s := Summarize(plan)
	want := []string{"West Wing", "Central Hall", "East Wing"}
	if len(s.Names) != 3 {
		t.Fatalf("Names = %v", s.Names)
	}
	for i, name := range want {
		if s.Names[i] != name {
			t.Errorf("Names[%d] = %q, want %q", i, s.Names[i], name)
		}
	}
}
