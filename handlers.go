package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/kwv/tactilemap/tactile"
)

// touchRequest is a screen-space touch sample from a client surface.
type touchRequest struct {
	X              float64  `json:"x"`
	Y              float64  `json:"y"`
	ViewportWidth  float64  `json:"viewportWidth"`
	ViewportHeight float64  `json:"viewportHeight"`
	Drag           bool     `json:"drag"`
	Duration       *float64 `json:"duration,omitempty"`
}

// touchResponse reports the hit-test result and the feedback to present.
type touchResponse struct {
	Feature         *featureInfo     `json:"feature"`
	OutsideBounds   bool             `json:"outsideBounds"`
	NewlyDiscovered bool             `json:"newlyDiscovered"`
	Feedback        tactile.Feedback `json:"feedback"`
}

type featureInfo struct {
	ID   string              `json:"id"`
	Name string              `json:"name"`
	Type tactile.FeatureType `json:"type"`
}

type gestureRequest struct {
	Kind     tactile.GestureKind `json:"kind"`
	Success  bool                `json:"success"`
	Duration float64             `json:"duration"`
	Attempts int                 `json:"attempts"`
}

type sessionRequest struct {
	Action      string `json:"action"`
	Participant string `json:"participant,omitempty"`
	Condition   string `json:"condition,omitempty"`
}

// newHTTPServer builds the HTTP mux for the exploration service.
func newHTTPServer(app *App) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"status":   "ok",
			"features": app.Store.Count(),
			"session":  app.Session.ActiveSessionID(),
		})
	})

	mux.HandleFunc("/api/features", func(w http.ResponseWriter, r *http.Request) {
		features := app.Store.Features()
		infos := make([]featureInfo, 0, len(features))
		for _, f := range features {
			infos = append(infos, featureInfo{ID: f.ID, Name: f.Name, Type: f.Type})
		}
		writeJSON(w, infos)
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"session": app.Session.ActiveSessionID(),
			"summary": app.Session.Summary(),
		})
	})

	mux.HandleFunc("/api/export.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=\"tactilemap-export.csv\"")
		if _, err := w.Write([]byte(tactile.CombinedExport(app.Session, time.Now()))); err != nil {
			app.Logger.Warn("export write failed", zap.Error(err))
		}
	})

	mux.HandleFunc("/floorplan.svg", func(w http.ResponseWriter, r *http.Request) {
		renderer := tactile.NewPlanRenderer(app.Store)
		if app.Config != nil && app.Config.Viewport != nil {
			renderer.Viewport = *app.Config.Viewport
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		if err := renderer.RenderToSVG(w); err != nil {
			app.Logger.Error("plan render failed", zap.Error(err))
			http.Error(w, "Render failed", http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("/api/touch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req touchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		writeJSON(w, handleTouch(app, req))
	})

	mux.HandleFunc("/api/gesture", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req gestureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		ev := app.Session.LogGesture(req.Kind, req.Success, req.Duration, req.Attempts)
		if app.Publisher != nil && ev != nil {
			if err := app.Publisher.PublishGesture(*ev); err != nil {
				app.Logger.Warn("gesture publish failed", zap.Error(err))
			}
		}
		writeJSON(w, map[string]string{"status": "recorded"})
	})

	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		switch req.Action {
		case "start":
			cond := tactile.StudyCondition(req.Condition)
			if req.Condition == "" {
				cond = tactile.ConditionUnspecified
			}
			id := app.Session.StartSession(req.Participant, cond)
			writeJSON(w, map[string]string{"status": "started", "session": id})
		case "end":
			rec := app.Session.EndSession()
			if rec == nil {
				http.Error(w, "No active session", http.StatusConflict)
				return
			}
			if app.Publisher != nil {
				if err := app.Publisher.PublishSummary(*rec); err != nil {
					app.Logger.Warn("summary publish failed", zap.Error(err))
				}
			}
			writeJSON(w, rec)
		case "clear":
			app.Session.ClearAllData()
			writeJSON(w, map[string]string{"status": "cleared"})
		default:
			http.Error(w, "Unknown action", http.StatusBadRequest)
		}
	})

	return mux
}

// handleTouch runs the full touch pipeline: hit test, session logging,
// debounced feedback, optional telemetry.
func handleTouch(app *App, req touchRequest) touchResponse {
	viewport := tactile.Size{Width: req.ViewportWidth, Height: req.ViewportHeight}
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = tactile.Size{Width: 1024, Height: 768}
		if app.Config != nil && app.Config.Viewport != nil {
			viewport = *app.Config.Viewport
		}
	}

	screen := orb.Point{req.X, req.Y}
	transform := app.Store.ScreenTransform(viewport)
	mapPoint := tactile.ToMap(screen, transform)
	feature := app.Store.FeatureAt(mapPoint)

	kind := tactile.InteractionTouch
	if req.Drag {
		kind = tactile.InteractionDrag
	}
	outside := false
	switch {
	case feature != nil && !req.Drag:
		if app.Session.HasDiscovered(feature.ID) {
			kind = tactile.InteractionFeatureRevisit
		} else {
			kind = tactile.InteractionFeatureDiscovery
		}
	case feature == nil && !app.Store.IsWithinFloorPlanBounds(screen, viewport, tactile.DefaultBoundsTolerance):
		kind = tactile.InteractionOutsideTouch
		outside = true
	}

	ev, discovered := app.Session.LogInteraction(screen, feature, kind, req.Duration)
	feedback := app.Dispatcher.Dispatch(screen, viewport, feature)

	if app.Publisher != nil && ev != nil {
		if err := app.Publisher.PublishInteraction(*ev); err != nil {
			app.Logger.Warn("interaction publish failed", zap.Error(err))
		}
	}

	resp := touchResponse{
		OutsideBounds:   outside,
		NewlyDiscovered: discovered,
		Feedback:        feedback,
	}
	if feature != nil {
		resp.Feature = &featureInfo{ID: feature.ID, Name: feature.Name, Type: feature.Type}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
	}
}
