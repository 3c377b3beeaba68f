package tactile

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// DefaultCooldown suppresses repeated feedback for the same target during a
// drag. Moving to a different target resets the window immediately.
const DefaultCooldown = 300 * time.Millisecond

// nearbyLimit caps how many feature names an outside-touch guidance message
// mentions.
const nearbyLimit = 2

// ToneID selects an audio feedback channel keyed by feature type.
type ToneID string

const (
	ToneRoom     ToneID = "tone.room"
	ToneCorridor ToneID = "tone.corridor"
	ToneElevator ToneID = "tone.elevator"
	ToneStairs   ToneID = "tone.stairs"
	ToneBathroom ToneID = "tone.bathroom"
	ToneLandmark ToneID = "tone.landmark"
	ToneOutside  ToneID = "tone.outside"
)

// HapticPatternID selects a vibration pattern keyed by feature type.
type HapticPatternID string

const (
	HapticRoom     HapticPatternID = "haptic.pulse"
	HapticCorridor HapticPatternID = "haptic.ripple"
	HapticElevator HapticPatternID = "haptic.rise"
	HapticStairs   HapticPatternID = "haptic.steps"
	HapticBathroom HapticPatternID = "haptic.double"
	HapticLandmark HapticPatternID = "haptic.burst"
	HapticOutside  HapticPatternID = "haptic.edge"
)

// ToneForFeature maps a feature type to its tone channel.
func ToneForFeature(t FeatureType) ToneID {
	switch t {
	case FeatureRoom:
		return ToneRoom
	case FeatureCorridor:
		return ToneCorridor
	case FeatureElevator:
		return ToneElevator
	case FeatureStairs:
		return ToneStairs
	case FeatureBathroom:
		return ToneBathroom
	case FeatureLandmark:
		return ToneLandmark
	}
	return ToneOutside
}

// HapticForFeature maps a feature type to its vibration pattern.
func HapticForFeature(t FeatureType) HapticPatternID {
	switch t {
	case FeatureRoom:
		return HapticRoom
	case FeatureCorridor:
		return HapticCorridor
	case FeatureElevator:
		return HapticElevator
	case FeatureStairs:
		return HapticStairs
	case FeatureBathroom:
		return HapticBathroom
	case FeatureLandmark:
		return HapticLandmark
	}
	return HapticOutside
}

// SpeechSynthesizer speaks text. Platform wrapper, injected by the host.
type SpeechSynthesizer interface {
	Speak(text string)
}

// TonePlayer plays a tone channel. Platform wrapper, injected by the host.
type TonePlayer interface {
	Play(tone ToneID)
}

// HapticDriver starts and stops vibration patterns. Platform wrapper,
// injected by the host.
type HapticDriver interface {
	Start(pattern HapticPatternID)
	Stop(pattern HapticPatternID)
}

// Feedback is the channel selection for one resolved hit-test outcome.
// The dispatcher requests these side effects; it never performs platform
// output itself.
type Feedback struct {
	Speech     string          `json:"speech"`
	Tone       ToneID          `json:"tone"`
	Haptic     HapticPatternID `json:"haptic"`
	OnFeature  bool            `json:"onFeature"`
	Suppressed bool            `json:"suppressed"`
}

// FeedbackDispatcher turns hit-test results into debounced multi-channel
// feedback requests.
type FeedbackDispatcher struct {
	mu       sync.Mutex
	log      *zap.Logger
	store    *FeatureStore
	now      func() time.Time
	cooldown time.Duration

	lastKey string
	lastAt  time.Time

	speech  SpeechSynthesizer
	tones   TonePlayer
	haptics HapticDriver

	patternDuration time.Duration
	stopTimers      map[HapticPatternID]*time.Timer
}

// NewFeedbackDispatcher creates a dispatcher over the given feature store.
func NewFeedbackDispatcher(store *FeatureStore, logger *zap.Logger) *FeedbackDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackDispatcher{
		log:             logger,
		store:           store,
		now:             time.Now,
		cooldown:        DefaultCooldown,
		patternDuration: 500 * time.Millisecond,
		stopTimers:      make(map[HapticPatternID]*time.Timer),
	}
}

// SetClock overrides the monotonic time source. Intended for tests.
func (d *FeedbackDispatcher) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// SetCooldown overrides the debounce window.
func (d *FeedbackDispatcher) SetCooldown(cd time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cooldown = cd
}

// Attach wires the platform output services. Any of them may be nil, in
// which case that channel's side effect is skipped.
func (d *FeedbackDispatcher) Attach(speech SpeechSynthesizer, tones TonePlayer, haptics HapticDriver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speech = speech
	d.tones = tones
	d.haptics = haptics
}

// Dispatch decides the feedback for a hit-test outcome at the given screen
// point. feature is nil for an outside touch. Repeated dispatches for the
// same feature inside the cooldown window return a suppressed decision; a
// change of target resets the window immediately.
func (d *FeedbackDispatcher) Dispatch(screen orb.Point, viewport Size, feature *Feature) Feedback {
	d.mu.Lock()

	key := ""
	if feature != nil {
		key = feature.ID
	}

	now := d.now()
	if key == d.lastKey && !d.lastAt.IsZero() && now.Sub(d.lastAt) < d.cooldown {
		d.mu.Unlock()
		return Feedback{OnFeature: feature != nil, Suppressed: true}
	}
	d.lastKey = key
	d.lastAt = now

	var fb Feedback
	if feature != nil {
		fb = Feedback{
			Speech:    feature.Name,
			Tone:      ToneForFeature(feature.Type),
			Haptic:    HapticForFeature(feature.Type),
			OnFeature: true,
		}
	} else {
		fb = Feedback{
			Speech: d.guidanceLocked(screen, viewport),
			Tone:   ToneOutside,
			Haptic: HapticOutside,
		}
	}

	speech, tones := d.speech, d.tones
	d.mu.Unlock()

	if speech != nil && fb.Speech != "" {
		speech.Speak(fb.Speech)
	}
	if tones != nil {
		tones.Play(fb.Tone)
	}
	d.StartPattern(fb.Haptic)

	return fb
}

// guidanceLocked builds the outside-touch guidance message: a coarse 3x3
// directional descriptor plus the nearest feature names. Callers hold d.mu.
func (d *FeedbackDispatcher) guidanceLocked(screen orb.Point, viewport Size) string {
	dir := directionDescriptor(screen, viewport)

	nearest := d.store.NearestFeatures(screen, viewport, nearbyLimit)
	if len(nearest) == 0 {
		return "Outside the map. Explore toward the center."
	}

	names := make([]string, len(nearest))
	for i, f := range nearest {
		names[i] = f.Name
	}
	return fmt.Sprintf("Outside the map, %s. Nearby: %s.", dir, strings.Join(names, ", "))
}

// directionDescriptor classifies a screen position into one of nine coarse
// regions based on its normalized viewport thirds.
func directionDescriptor(screen orb.Point, viewport Size) string {
	nx, ny := 0.5, 0.5
	if viewport.Width > 0 {
		nx = screen[0] / viewport.Width
	}
	if viewport.Height > 0 {
		ny = screen[1] / viewport.Height
	}

	var vert, horiz string
	switch {
	case ny < 1.0/3.0:
		vert = "top"
	case ny > 2.0/3.0:
		vert = "bottom"
	default:
		vert = "middle"
	}
	switch {
	case nx < 1.0/3.0:
		horiz = "left"
	case nx > 2.0/3.0:
		horiz = "right"
	default:
		horiz = "center"
	}

	if vert == "middle" && horiz == "center" {
		return "near the center"
	}
	if vert == "middle" {
		return "at the " + horiz
	}
	if horiz == "center" {
		return "at the " + vert
	}
	return "at the " + vert + " " + horiz
}

// StartPattern requests a continuous haptic pattern and schedules its stop.
// Starting a pattern cancels any still-pending stop timer for that pattern
// so timers never stack.
func (d *FeedbackDispatcher) StartPattern(pattern HapticPatternID) {
	d.mu.Lock()
	haptics := d.haptics
	if haptics == nil {
		d.mu.Unlock()
		return
	}

	if t, ok := d.stopTimers[pattern]; ok {
		t.Stop()
	}
	d.stopTimers[pattern] = time.AfterFunc(d.patternDuration, func() {
		d.StopPattern(pattern)
	})
	d.mu.Unlock()

	haptics.Start(pattern)
}

// StopPattern stops a running haptic pattern and clears its stop timer.
func (d *FeedbackDispatcher) StopPattern(pattern HapticPatternID) {
	d.mu.Lock()
	if t, ok := d.stopTimers[pattern]; ok {
		t.Stop()
		delete(d.stopTimers, pattern)
	}
	haptics := d.haptics
	d.mu.Unlock()

	if haptics != nil {
		haptics.Stop(pattern)
	}
}
