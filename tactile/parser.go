package tactile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ParsePlanFile reads and parses a floor-plan JSON file.
func ParsePlanFile(path string) (*FloorPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return ParsePlanJSON(data)
}

// ParsePlanJSON parses floor-plan JSON data. Any structural problem is a
// fatal load error: the core never guesses defaults for a malformed plan.
func ParsePlanJSON(data []byte) (*FloorPlan, error) {
	var raw struct {
		Features []struct {
			ID          string      `json:"id"`
			Type        string      `json:"type"`
			Name        string      `json:"name"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing plan JSON: %w", err)
	}

	plan := &FloorPlan{Features: make([]Feature, 0, len(raw.Features))}
	seen := make(map[string]bool, len(raw.Features))

	for i, rf := range raw.Features {
		if rf.ID == "" {
			return nil, fmt.Errorf("feature[%d]: id is required", i)
		}
		if seen[rf.ID] {
			return nil, fmt.Errorf("feature[%d]: duplicate id %q", i, rf.ID)
		}
		seen[rf.ID] = true

		ft, err := ParseFeatureType(rf.Type)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", rf.ID, err)
		}
		if rf.Name == "" {
			return nil, fmt.Errorf("feature %q: name is required", rf.ID)
		}
		if len(rf.Coordinates) < 3 {
			return nil, fmt.Errorf("feature %q: polygon needs at least 3 points, got %d", rf.ID, len(rf.Coordinates))
		}

		plan.Features = append(plan.Features, Feature{
			ID:          rf.ID,
			Type:        ft,
			Name:        rf.Name,
			Coordinates: rf.Coordinates,
		})
	}

	return plan, nil
}

// PlanSummary describes a loaded plan for the validate mode.
type PlanSummary struct {
	FeatureCount int
	ByType       map[FeatureType]int
	Names        []string
}

// Summarize builds a human-readable summary of a loaded plan. Names are
// listed in left-to-right plan order, the order a reader sweeps the map.
func Summarize(plan *FloorPlan) PlanSummary {
	s := PlanSummary{
		FeatureCount: len(plan.Features),
		ByType:       make(map[FeatureType]int),
	}

	ordered := make([]Feature, len(plan.Features))
	copy(ordered, plan.Features)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MinX() < ordered[j].MinX()
	})

	for _, f := range ordered {
		s.ByType[f.Type]++
		s.Names = append(s.Names, f.Name)
	}
	return s
}
