package tactile

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

type recordingSpeech struct {
	mu     sync.Mutex
	spoken []string
}

func (r *recordingSpeech) Speak(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
}

type recordingTones struct {
	mu     sync.Mutex
	played []ToneID
}

func (r *recordingTones) Play(tone ToneID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.played = append(r.played, tone)
}

type recordingHaptics struct {
	mu      sync.Mutex
	started []HapticPatternID
	stopped []HapticPatternID
}

func (r *recordingHaptics) Start(pattern HapticPatternID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, pattern)
}

func (r *recordingHaptics) Stop(pattern HapticPatternID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, pattern)
}

func newTestDispatcher() (*FeedbackDispatcher, *time.Time) {
	store := NewFeatureStore(testPlan())
	d := NewFeedbackDispatcher(store, nil)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d.SetClock(func() time.Time { return now })
	return d, &now
}

func TestDispatchFeatureFeedback(t *testing.T) {
	d, _ := newTestDispatcher()
	f := &Feature{ID: "r1", Type: FeatureStairs, Name: "North Stairs"}

	fb := d.Dispatch(orb.Point{100, 100}, Size{Width: 800, Height: 600}, f)
	if fb.Suppressed {
		t.Fatal("first dispatch suppressed")
	}
	if !fb.OnFeature || fb.Speech != "North Stairs" || fb.Tone != ToneStairs || fb.Haptic != HapticStairs {
		t.Errorf("feature feedback = %+v", fb)
	}
}

func TestDispatchDebounce(t *testing.T) {
	d, now := newTestDispatcher()
	viewport := Size{Width: 800, Height: 600}
	f := &Feature{ID: "r1", Type: FeatureRoom, Name: "Room 1"}

	if fb := d.Dispatch(orb.Point{100, 100}, viewport, f); fb.Suppressed {
		t.Fatal("first dispatch suppressed")
	}

	// Same feature inside the window: suppressed.
	*now = now.Add(100 * time.Millisecond)
	if fb := d.Dispatch(orb.Point{105, 100}, viewport, f); !fb.Suppressed {
		t.Error("repeat within cooldown not suppressed")
	}

	// A suppressed dispatch does not refresh the window.
	*now = now.Add(250 * time.Millisecond)
	if fb := d.Dispatch(orb.Point{110, 100}, viewport, f); fb.Suppressed {
		t.Error("dispatch after cooldown elapsed was suppressed")
	}
}

func TestDispatchTargetChangeResetsWindow(t *testing.T) {
	d, now := newTestDispatcher()
	viewport := Size{Width: 800, Height: 600}
	a := &Feature{ID: "a", Type: FeatureRoom, Name: "A"}
	b := &Feature{ID: "b", Type: FeatureElevator, Name: "B"}

	d.Dispatch(orb.Point{100, 100}, viewport, a)

	*now = now.Add(50 * time.Millisecond)
	if fb := d.Dispatch(orb.Point{200, 100}, viewport, b); fb.Suppressed {
		t.Error("different feature suppressed inside the previous window")
	}

	// Moving to outside-the-map is also a target change.
	*now = now.Add(50 * time.Millisecond)
	if fb := d.Dispatch(orb.Point{-50, -50}, viewport, nil); fb.Suppressed {
		t.Error("outside touch suppressed after feature feedback")
	}

	// And repeated outside touches debounce against each other.
	*now = now.Add(50 * time.Millisecond)
	if fb := d.Dispatch(orb.Point{-40, -50}, viewport, nil); !fb.Suppressed {
		t.Error("repeated outside touch not suppressed")
	}
}

func TestDispatchCustomCooldown(t *testing.T) {
	d, now := newTestDispatcher()
	d.SetCooldown(50 * time.Millisecond)
	viewport := Size{Width: 800, Height: 600}
	f := &Feature{ID: "r1", Type: FeatureRoom, Name: "Room 1"}

	d.Dispatch(orb.Point{100, 100}, viewport, f)
	*now = now.Add(60 * time.Millisecond)
	if fb := d.Dispatch(orb.Point{100, 100}, viewport, f); fb.Suppressed {
		t.Error("dispatch suppressed beyond shortened cooldown")
	}
}

func TestOutsideGuidanceMessage(t *testing.T) {
	d, _ := newTestDispatcher()
	viewport := Size{Width: 800, Height: 600}

	fb := d.Dispatch(orb.Point{10, 10}, viewport, nil)
	if fb.OnFeature {
		t.Error("outside feedback flagged OnFeature")
	}
	if fb.Tone != ToneOutside || fb.Haptic != HapticOutside {
		t.Errorf("outside channels = %v/%v", fb.Tone, fb.Haptic)
	}
	if !strings.HasPrefix(fb.Speech, "Outside the map, at the top left.") {
		t.Errorf("guidance = %q", fb.Speech)
	}
	if !strings.Contains(fb.Speech, "Nearby:") {
		t.Errorf("guidance missing nearby names: %q", fb.Speech)
	}
}

func TestOutsideGuidanceEmptyStore(t *testing.T) {
	d := NewFeedbackDispatcher(NewFeatureStore(&FloorPlan{}), nil)

	fb := d.Dispatch(orb.Point{400, 300}, Size{Width: 800, Height: 600}, nil)
	if fb.Speech != "Outside the map. Explore toward the center." {
		t.Errorf("empty-store guidance = %q", fb.Speech)
	}
}

func TestDirectionDescriptor(t *testing.T) {
	viewport := Size{Width: 900, Height: 900}

	tests := []struct {
		name  string
		point orb.Point
		want  string
	}{
		{"center", orb.Point{450, 450}, "near the center"},
		{"top left", orb.Point{100, 100}, "at the top left"},
		{"bottom right", orb.Point{800, 800}, "at the bottom right"},
		{"top center", orb.Point{450, 100}, "at the top"},
		{"middle left", orb.Point{100, 450}, "at the left"},
		{"middle right", orb.Point{800, 450}, "at the right"},
		{"bottom center", orb.Point{450, 800}, "at the bottom"},
		{"zero viewport defaults to center", orb.Point{10, 10}, "near the center"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := viewport
			if tt.name == "zero viewport defaults to center" {
				vp = Size{}
			}
			if got := directionDescriptor(tt.point, vp); got != tt.want {
				t.Errorf("directionDescriptor(%v) = %q, want %q", tt.point, got, tt.want)
			}
		})
	}
}

func TestToneAndHapticMapping(t *testing.T) {
	tests := []struct {
		ftype  FeatureType
		tone   ToneID
		haptic HapticPatternID
	}{
		{FeatureRoom, ToneRoom, HapticRoom},
		{FeatureCorridor, ToneCorridor, HapticCorridor},
		{FeatureElevator, ToneElevator, HapticElevator},
		{FeatureStairs, ToneStairs, HapticStairs},
		{FeatureBathroom, ToneBathroom, HapticBathroom},
		{FeatureLandmark, ToneLandmark, HapticLandmark},
		{FeatureType("bogus"), ToneOutside, HapticOutside},
	}

	for _, tt := range tests {
		if got := ToneForFeature(tt.ftype); got != tt.tone {
			t.Errorf("ToneForFeature(%s) = %v, want %v", tt.ftype, got, tt.tone)
		}
		if got := HapticForFeature(tt.ftype); got != tt.haptic {
			t.Errorf("HapticForFeature(%s) = %v, want %v", tt.ftype, got, tt.haptic)
		}
	}
}

func TestAttachedChannelsReceiveSideEffects(t *testing.T) {
	d, _ := newTestDispatcher()
	speech := &recordingSpeech{}
	tones := &recordingTones{}
	haptics := &recordingHaptics{}
	d.Attach(speech, tones, haptics)

	f := &Feature{ID: "r1", Type: FeatureBathroom, Name: "Bathroom"}
	d.Dispatch(orb.Point{100, 100}, Size{Width: 800, Height: 600}, f)

	speech.mu.Lock()
	defer speech.mu.Unlock()
	tones.mu.Lock()
	defer tones.mu.Unlock()
	haptics.mu.Lock()
	defer haptics.mu.Unlock()

	if len(speech.spoken) != 1 || speech.spoken[0] != "Bathroom" {
		t.Errorf("spoken = %v", speech.spoken)
	}
	if len(tones.played) != 1 || tones.played[0] != ToneBathroom {
		t.Errorf("tones = %v", tones.played)
	}
	if len(haptics.started) != 1 || haptics.started[0] != HapticBathroom {
		t.Errorf("haptics started = %v", haptics.started)
	}
}

func TestStopPatternStopsAndClearsTimer(t *testing.T) {
	d, _ := newTestDispatcher()
	haptics := &recordingHaptics{}
	d.Attach(nil, nil, haptics)

	d.StartPattern(HapticRoom)
	d.StopPattern(HapticRoom)

	haptics.mu.Lock()
	defer haptics.mu.Unlock()
	if len(haptics.started) != 1 || len(haptics.stopped) != 1 {
		t.Errorf("started=%v stopped=%v", haptics.started, haptics.stopped)
	}
}
