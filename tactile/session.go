package tactile

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

const (
	// coverageCellSize quantizes explored screen positions into grid cells.
	coverageCellSize = 50.0

	// coverageNormalization is the fixed denominator for the exploration
	// coverage heuristic: coverage = |explored cells| / 100. It is a
	// constant, not proportional to the actual map area.
	coverageNormalization = 100.0

	// noActiveSessionSummary is returned by Summary when idle.
	noActiveSessionSummary = "No active session"
)

type gridCell struct {
	x, y int
}

// sessionTracker carries the mutable state of the active logging session.
type sessionTracker struct {
	id            string
	participantID string
	condition     StudyCondition
	startTime     time.Time
	discovered    map[string]bool
	exploredCells map[gridCell]bool
	interactions  int
	errors        int
}

// InteractionSession owns the interaction/gesture event streams and the
// session history. Sessions are cumulative milestones over one continuous
// stream: EndSession snapshots the active tracker but does not clear it, so
// a later snapshot after further activity reports cumulative totals.
//
// All mutation is serialized by an internal mutex so hosts that deliver
// touch events from multiple threads can call in directly.
type InteractionSession struct {
	mu             sync.Mutex
	log            *zap.Logger
	now            func() time.Time
	totalFeatures  int
	loggingEnabled bool
	tracker        *sessionTracker
	interactions   []InteractionEvent
	gestures       []GestureEvent
	sessions       []SessionRecord

	// OnDiscovery, when set, is invoked (outside the lock) the first time a
	// feature is touched within a session.
	OnDiscovery func(f *Feature)
}

// NewInteractionSession creates a session log for a catalog of totalFeatures
// features. Logging stays disabled until StartSession.
func NewInteractionSession(totalFeatures int, logger *zap.Logger) *InteractionSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InteractionSession{
		log:           logger,
		now:           time.Now,
		totalFeatures: totalFeatures,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *InteractionSession) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InteractionSession) unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// StartSession begins a new logging session and returns its id. Calling
// start while a session is active replaces the tracker: in-flight counters
// are lost, only previously snapshot records survive in the history.
func (s *InteractionSession) StartSession(participantID string, condition StudyCondition) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker != nil {
		s.log.Warn("replacing active session tracker",
			zap.String("previousSession", s.tracker.id),
			zap.Int("droppedInteractions", s.tracker.interactions))
	}

	s.tracker = &sessionTracker{
		id:            uuid.NewString(),
		participantID: participantID,
		condition:     condition,
		startTime:     s.now(),
		discovered:    make(map[string]bool),
		exploredCells: make(map[gridCell]bool),
	}
	s.loggingEnabled = true

	s.log.Info("session started",
		zap.String("session", s.tracker.id),
		zap.String("participant", participantID),
		zap.String("condition", string(condition)))

	return s.tracker.id
}

// LogInteraction appends an interaction event for the screen point and the
// optional feature it resolved to. It returns a copy of the appended event
// and whether the feature was newly discovered this session. When logging is
// disabled or no session is active the event is dropped with a diagnostic
// warning and the returned event is nil.
func (s *InteractionSession) LogInteraction(screen orb.Point, feature *Feature, kind InteractionKind, duration *float64) (*InteractionEvent, bool) {
	s.mu.Lock()

	if !s.loggingEnabled || s.tracker == nil {
		s.mu.Unlock()
		s.log.Warn("interaction dropped: no active session", zap.String("kind", string(kind)))
		return nil, false
	}

	ev := InteractionEvent{
		Timestamp:     s.unixSeconds(s.now()),
		SessionID:     s.tracker.id,
		ParticipantID: s.tracker.participantID,
		X:             screen[0],
		Y:             screen[1],
		Kind:          kind,
		Duration:      duration,
	}

	newlyDiscovered := false
	if feature != nil {
		id, name, ftype := feature.ID, feature.Name, feature.Type
		ev.FeatureID = &id
		ev.FeatureName = &name
		ev.FeatureType = &ftype

		if !s.tracker.discovered[id] {
			s.tracker.discovered[id] = true
			newlyDiscovered = true
		}
	}

	s.interactions = append(s.interactions, ev)
	s.tracker.interactions++
	s.tracker.exploredCells[gridCell{
		x: int(math.Floor(screen[0] / coverageCellSize)),
		y: int(math.Floor(screen[1] / coverageCellSize)),
	}] = true

	if kind == InteractionOutsideTouch {
		s.tracker.errors++
	}

	callback := s.OnDiscovery
	s.mu.Unlock()

	if newlyDiscovered && callback != nil {
		callback(feature)
	}

	return &ev, newlyDiscovered
}

// HasDiscovered reports whether the feature id was already discovered in the
// active session. Callers use it to classify touch vs revisit semantics.
func (s *InteractionSession) HasDiscovered(featureID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker != nil && s.tracker.discovered[featureID]
}

// LogGesture appends a gesture event under the same guard as LogInteraction
// and returns a copy of the appended event, or nil when the event was
// dropped.
func (s *InteractionSession) LogGesture(kind GestureKind, success bool, duration float64, attempts int) *GestureEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggingEnabled || s.tracker == nil {
		s.log.Warn("gesture dropped: no active session", zap.String("kind", string(kind)))
		return nil
	}
	if attempts < 1 {
		attempts = 1
	}

	g := GestureEvent{
		Timestamp:     s.unixSeconds(s.now()),
		SessionID:     s.tracker.id,
		ParticipantID: s.tracker.participantID,
		Kind:          kind,
		Success:       success,
		Duration:      duration,
		Attempts:      attempts,
	}
	s.gestures = append(s.gestures, g)
	return &g
}

// EndSession snapshots the active tracker into an immutable SessionRecord
// appended to the session history. The tracker deliberately stays active and
// logging stays enabled: further events keep accumulating into the same
// tracker, and a later EndSession produces another snapshot with cumulative
// totals. Returns nil when no session is active.
func (s *InteractionSession) EndSession() *SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker == nil {
		s.log.Warn("end session ignored: no active session")
		return nil
	}

	rec := s.snapshotLocked()
	s.sessions = append(s.sessions, rec)

	s.log.Info("session snapshot recorded",
		zap.String("session", rec.SessionID),
		zap.Int("interactions", rec.TotalInteractions),
		zap.Int("discovered", rec.UniqueFeaturesDiscovered),
		zap.Float64("coverage", rec.ExplorationCoverage))

	return &rec
}

func (s *InteractionSession) snapshotLocked() SessionRecord {
	end := s.unixSeconds(s.now())
	return SessionRecord{
		SessionID:                s.tracker.id,
		ParticipantID:            s.tracker.participantID,
		StartTime:                s.unixSeconds(s.tracker.startTime),
		EndTime:                  &end,
		TotalInteractions:        s.tracker.interactions,
		UniqueFeaturesDiscovered: len(s.tracker.discovered),
		TotalFeaturesAvailable:   s.totalFeatures,
		ExplorationCoverage:      float64(len(s.tracker.exploredCells)) / coverageNormalization,
		StudyCondition:           s.tracker.condition,
		ErrorCount:               s.tracker.errors,
	}
}

// Summary returns a human-readable snapshot of the active tracker without
// side effects, or a fixed sentinel when idle.
func (s *InteractionSession) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker == nil {
		return noActiveSessionSummary
	}

	interactions := 0
	for _, ev := range s.interactions {
		if ev.SessionID == s.tracker.id {
			interactions++
		}
	}
	gestures := 0
	for _, g := range s.gestures {
		if g.SessionID == s.tracker.id {
			gestures++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", s.tracker.id)
	fmt.Fprintf(&b, "Participant: %s (%s)\n", s.tracker.participantID, s.tracker.condition)
	fmt.Fprintf(&b, "Interactions: %d, Gestures: %d\n", interactions, gestures)
	fmt.Fprintf(&b, "Features discovered: %d/%d\n", len(s.tracker.discovered), s.totalFeatures)
	fmt.Fprintf(&b, "Outside touches: %d\n", s.tracker.errors)
	fmt.Fprintf(&b, "Elapsed: %.0fs", s.now().Sub(s.tracker.startTime).Seconds())
	return b.String()
}

// ClearAllData drops all events, the session history, and the active
// tracker, and disables logging. There is no partial-clear variant.
func (s *InteractionSession) ClearAllData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactions = nil
	s.gestures = nil
	s.sessions = nil
	s.tracker = nil
	s.loggingEnabled = false

	s.log.Info("all session data cleared")
}

// LoggingEnabled reports whether events are currently being recorded.
func (s *InteractionSession) LoggingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggingEnabled
}

// ActiveSessionID returns the active tracker's id, or empty string.
func (s *InteractionSession) ActiveSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker == nil {
		return ""
	}
	return s.tracker.id
}

// Interactions returns a copy of the full interaction stream.
func (s *InteractionSession) Interactions() []InteractionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]InteractionEvent, len(s.interactions))
	copy(out, s.interactions)
	return out
}

// Gestures returns a copy of the full gesture stream.
func (s *InteractionSession) Gestures() []GestureEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GestureEvent, len(s.gestures))
	copy(out, s.gestures)
	return out
}

// Sessions returns a copy of the session history.
func (s *InteractionSession) Sessions() []SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionRecord, len(s.sessions))
	copy(out, s.sessions)
	return out
}
