package tactile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Fixed CSV column layouts for the research export. These are the contract
// with downstream analysis scripts; never reorder them.
var (
	InteractionHeader = []string{
		"timestamp", "session_id", "participant_id",
		"x_coordinate", "y_coordinate",
		"feature_id", "feature_name", "feature_type",
		"interaction_type", "duration",
	}
	GestureHeader = []string{
		"timestamp", "session_id", "participant_id",
		"gesture_type", "success", "duration", "attempts",
	}
	SessionHeader = []string{
		"session_id", "participant_id", "start_time", "end_time", "duration",
		"total_interactions", "features_discovered", "total_features",
		"coverage_percentage", "study_condition", "error_count",
	}
)

// formatFloat renders a float in its shortest round-trippable decimal form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// InteractionsCSV serializes interaction events in the order given. Optional
// fields render as empty strings.
func InteractionsCSV(events []InteractionEvent) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(InteractionHeader)
	for _, ev := range events {
		ftype := ""
		if ev.FeatureType != nil {
			ftype = string(*ev.FeatureType)
		}
		_ = w.Write([]string{
			formatFloat(ev.Timestamp),
			ev.SessionID,
			ev.ParticipantID,
			formatFloat(ev.X),
			formatFloat(ev.Y),
			derefOr(ev.FeatureID),
			derefOr(ev.FeatureName),
			ftype,
			string(ev.Kind),
			formatOptFloat(ev.Duration),
		})
	}
	w.Flush()
	return b.String()
}

// GesturesCSV serializes gesture events in the order given.
func GesturesCSV(events []GestureEvent) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(GestureHeader)
	for _, g := range events {
		_ = w.Write([]string{
			formatFloat(g.Timestamp),
			g.SessionID,
			g.ParticipantID,
			string(g.Kind),
			strconv.FormatBool(g.Success),
			formatFloat(g.Duration),
			strconv.Itoa(g.Attempts),
		})
	}
	w.Flush()
	return b.String()
}

// SessionsCSV serializes session records in the order given. Duration is
// end_time - start_time; both render empty when the record has no end time.
func SessionsCSV(records []SessionRecord) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(SessionHeader)
	for _, r := range records {
		endTime, duration := "", ""
		if r.EndTime != nil {
			endTime = formatFloat(*r.EndTime)
			duration = formatFloat(*r.EndTime - r.StartTime)
		}
		_ = w.Write([]string{
			r.SessionID,
			r.ParticipantID,
			formatFloat(r.StartTime),
			endTime,
			duration,
			strconv.Itoa(r.TotalInteractions),
			strconv.Itoa(r.UniqueFeaturesDiscovered),
			strconv.Itoa(r.TotalFeaturesAvailable),
			formatFloat(r.ExplorationCoverage * 100),
			string(r.StudyCondition),
			strconv.Itoa(r.ErrorCount),
		})
	}
	w.Flush()
	return b.String()
}

// CombinedExport builds the full research export document: commented
// metadata, the three CSV sections in fixed order, and a commented
// quick-statistics block.
func CombinedExport(s *InteractionSession, generatedAt time.Time) string {
	interactions := s.Interactions()
	gestures := s.Gestures()
	sessions := s.Sessions()

	featureTouches := 0
	outsideTouches := 0
	discovered := make(map[string]bool)
	for _, ev := range interactions {
		if ev.FeatureID != nil {
			featureTouches++
			discovered[*ev.FeatureID] = true
		}
		if ev.Kind == InteractionOutsideTouch {
			outsideTouches++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# tactilemap research export\n")
	fmt.Fprintf(&b, "# generated: %s\n", generatedAt.Format(time.RFC3339))
	for _, line := range strings.Split(s.Summary(), "\n") {
		fmt.Fprintf(&b, "# %s\n", line)
	}
	b.WriteString("\n# interactions\n")
	b.WriteString(InteractionsCSV(interactions))
	b.WriteString("\n# gestures\n")
	b.WriteString(GesturesCSV(gestures))
	b.WriteString("\n# sessions\n")
	b.WriteString(SessionsCSV(sessions))
	b.WriteString("\n# statistics\n")
	fmt.Fprintf(&b, "# total_interactions: %d\n", len(interactions))
	fmt.Fprintf(&b, "# total_gestures: %d\n", len(gestures))
	fmt.Fprintf(&b, "# feature_interactions: %d\n", featureTouches)
	fmt.Fprintf(&b, "# outside_touches: %d\n", outsideTouches)
	fmt.Fprintf(&b, "# unique_features_discovered: %d\n", len(discovered))
	fmt.Fprintf(&b, "# logging_enabled: %v\n", s.LoggingEnabled())
	return b.String()
}

// WriteExportFile writes an export document to disk. A failure is reported
// to the caller and leaves session state untouched, so the export can be
// retried with the same records.
func WriteExportFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}
