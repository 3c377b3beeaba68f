package tactile

import (
	"fmt"

	"github.com/paulmach/orb"
)

// FeatureType classifies a floor-plan region. The set is closed: an
// unrecognized type in the plan source is a load-time error, not a default.
type FeatureType string

const (
	FeatureRoom     FeatureType = "room"
	FeatureCorridor FeatureType = "corridor"
	FeatureElevator FeatureType = "elevator"
	FeatureStairs   FeatureType = "stairs"
	FeatureBathroom FeatureType = "bathroom"
	FeatureLandmark FeatureType = "landmark"
)

// ParseFeatureType validates a raw type string from the plan source.
func ParseFeatureType(s string) (FeatureType, error) {
	switch t := FeatureType(s); t {
	case FeatureRoom, FeatureCorridor, FeatureElevator, FeatureStairs, FeatureBathroom, FeatureLandmark:
		return t, nil
	}
	return "", fmt.Errorf("unknown feature type %q", s)
}

// Feature is one named polygonal region of a floor plan. Immutable after
// load. Coordinates are map-space points; entries with fewer than two
// components are skipped by all geometric computations rather than failing.
type Feature struct {
	ID          string      `json:"id"`
	Type        FeatureType `json:"type"`
	Name        string      `json:"name"`
	Coordinates [][]float64 `json:"coordinates"`
}

// MinX returns the minimum x over the feature's valid coordinates.
func (f *Feature) MinX() float64 {
	min := 0.0
	found := false
	for _, c := range f.Coordinates {
		if len(c) < 2 {
			continue
		}
		if !found || c[0] < min {
			min = c[0]
			found = true
		}
	}
	return min
}

// Centroid returns the arithmetic mean of the feature's valid coordinates.
func (f *Feature) Centroid() orb.Point {
	return Centroid(f.Coordinates)
}

// FloorPlan is the root structure of the plan source JSON.
type FloorPlan struct {
	Features []Feature `json:"features"`
}

// Size represents viewport dimensions in screen points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// InteractionKind tags a logged touch interaction.
type InteractionKind string

const (
	InteractionTouch            InteractionKind = "touch"
	InteractionDrag             InteractionKind = "drag"
	InteractionOutsideTouch     InteractionKind = "outsideTouch"
	InteractionFeatureDiscovery InteractionKind = "featureDiscovery"
	InteractionFeatureRevisit   InteractionKind = "featureRevisit"
)

// GestureKind tags a logged gesture attempt.
type GestureKind string

const (
	GestureSingleTap      GestureKind = "singleTap"
	GestureDoubleTap      GestureKind = "doubleTap"
	GestureTripleTap      GestureKind = "tripleTap"
	GestureOverviewButton GestureKind = "overviewButton"
)

// StudyCondition labels the experimental condition a session ran under.
// Researcher-assigned; unknown values pass through so old exports stay
// loadable.
type StudyCondition string

const (
	ConditionPractice    StudyCondition = "practice"
	ConditionAudioOnly   StudyCondition = "audioOnly"
	ConditionHapticOnly  StudyCondition = "hapticOnly"
	ConditionMultimodal  StudyCondition = "multimodal"
	ConditionUnspecified StudyCondition = "unspecified"
)

// InteractionEvent is one recorded touch/drag event. Immutable once appended.
// Optional fields are pointers so absence survives serialization unambiguously.
type InteractionEvent struct {
	Timestamp     float64          `json:"timestamp"` // unix seconds
	SessionID     string           `json:"sessionId"`
	ParticipantID string           `json:"participantId"`
	X             float64          `json:"x"` // screen coordinates at event time
	Y             float64          `json:"y"`
	FeatureID     *string          `json:"featureId,omitempty"`
	FeatureName   *string          `json:"featureName,omitempty"`
	FeatureType   *FeatureType     `json:"featureType,omitempty"`
	Kind          InteractionKind  `json:"kind"`
	Duration      *float64         `json:"duration,omitempty"` // seconds
}

// GestureEvent is one recorded gesture attempt.
type GestureEvent struct {
	Timestamp     float64     `json:"timestamp"`
	SessionID     string      `json:"sessionId"`
	ParticipantID string      `json:"participantId"`
	Kind          GestureKind `json:"kind"`
	Success       bool        `json:"success"`
	Duration      float64     `json:"duration"`
	Attempts      int         `json:"attempts"`
}

// SessionRecord is an immutable snapshot of the active tracker produced by
// EndSession. Because sessions are cumulative milestones over one continuous
// stream, a later snapshot of the same tracker reports cumulative totals.
type SessionRecord struct {
	SessionID                string         `json:"sessionId"`
	ParticipantID            string         `json:"participantId"`
	StartTime                float64        `json:"startTime"`
	EndTime                  *float64       `json:"endTime,omitempty"`
	TotalInteractions        int            `json:"totalInteractions"`
	UniqueFeaturesDiscovered int            `json:"uniqueFeaturesDiscovered"`
	TotalFeaturesAvailable   int            `json:"totalFeaturesAvailable"`
	ExplorationCoverage      float64        `json:"explorationCoverage"` // fraction in [0,1]
	StudyCondition           StudyCondition `json:"studyCondition"`
	ErrorCount               int            `json:"errorCount"`
}

// MQTTConfig holds MQTT connection settings for the telemetry service.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file.
type Config struct {
	PlanPath           string     `yaml:"planPath" json:"planPath"`
	MQTT               MQTTConfig `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
	Participant        string     `yaml:"participant,omitempty" json:"participant,omitempty"`
	Condition          string     `yaml:"condition,omitempty" json:"condition,omitempty"`
	FeedbackCooldownMs int        `yaml:"feedbackCooldownMs,omitempty" json:"feedbackCooldownMs,omitempty"` // 0 means the 300ms default
	Viewport           *Size      `yaml:"viewport,omitempty" json:"viewport,omitempty"`
	GridSpacing        float64    `yaml:"gridSpacing,omitempty" json:"gridSpacing,omitempty"` // renderer grid lines, map units
}

// EffectiveCondition returns the configured study condition or unspecified.
func (c *Config) EffectiveCondition() StudyCondition {
	if c.Condition == "" {
		return ConditionUnspecified
	}
	return StudyCondition(c.Condition)
}
