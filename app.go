package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kwv/tactilemap/tactile"
)

// App encapsulates the application state and dependencies
type App struct {
	Logger     *zap.Logger
	Config     *tactile.Config
	Store      *tactile.FeatureStore
	Session    *tactile.InteractionSession
	Dispatcher *tactile.FeedbackDispatcher
	Telemetry  *tactile.TelemetryClient
	Publisher  *tactile.TelemetryPublisher

	// CLI flags (effectively dependencies)
	ConfigFile  string
	PlanFile    string
	OutputFile  string
	HttpPort    int
	HttpMode    bool
	MqttMode    bool
	Participant string
	Condition   string
}

// AppOptions carries parsed CLI options into the App.
type AppOptions struct {
	ConfigFile  string
	PlanFile    string
	OutputFile  string
	HttpPort    int
	HttpMode    bool
	MqttMode    bool
	Participant string
	Condition   string
}

// NewApp creates a new App instance
func NewApp() *App {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return &App{Logger: logger}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.PlanFile = opts.PlanFile
	a.OutputFile = opts.OutputFile
	a.HttpPort = opts.HttpPort
	a.HttpMode = opts.HttpMode
	a.MqttMode = opts.MqttMode
	a.Participant = opts.Participant
	a.Condition = opts.Condition
}

// loadConfig loads the configuration file, tolerating its absence when a
// plan path was given on the command line.
func (a *App) loadConfig() *tactile.Config {
	if _, err := os.Stat(a.ConfigFile); err != nil {
		if a.PlanFile == "" {
			log.Fatalf("Config file %s not found and no -plan given", a.ConfigFile)
		}
		return &tactile.Config{PlanPath: a.PlanFile}
	}

	config, err := tactile.LoadConfig(a.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}

// resolvePlanPath returns the plan path, CLI flag taking precedence.
func (a *App) resolvePlanPath(config *tactile.Config) string {
	if a.PlanFile != "" {
		return a.PlanFile
	}
	return config.PlanPath
}

// loadPlan parses the floor plan. A load failure is fatal: the core never
// runs against a partial plan.
func (a *App) loadPlan(path string) *tactile.FloorPlan {
	plan, err := tactile.ParsePlanFile(path)
	if err != nil {
		log.Fatalf("Failed to load floor plan %s: %v", path, err)
	}
	return plan
}

// RunValidate parses the floor plan, prints a summary, and exits.
func (a *App) RunValidate() {
	config := a.loadConfig()
	path := a.resolvePlanPath(config)
	plan := a.loadPlan(path)

	summary := tactile.Summarize(plan)
	store := tactile.NewFeatureStore(plan)
	bounds := store.Bounds()

	fmt.Printf("Plan: %s\n", path)
	fmt.Printf("Features: %d\n", summary.FeatureCount)
	for t, n := range summary.ByType {
		fmt.Printf("  %-10s %d\n", t, n)
	}
	fmt.Printf("Bounds: (%.1f, %.1f) - (%.1f, %.1f)\n",
		bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
	fmt.Printf("Names: %s\n", strings.Join(summary.Names, ", "))
}

// RunRender renders the floor plan to SVG or PNG and exits.
func (a *App) RunRender() {
	config := a.loadConfig()
	plan := a.loadPlan(a.resolvePlanPath(config))
	store := tactile.NewFeatureStore(plan)

	renderer := tactile.NewPlanRenderer(store)
	if config.Viewport != nil {
		renderer.Viewport = *config.Viewport
	}
	renderer.GridSpacing = config.GridSpacing

	out, err := os.Create(a.OutputFile)
	if err != nil {
		log.Fatalf("Failed to create output file %s: %v", a.OutputFile, err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Printf("Warning: error closing output file %s: %v", a.OutputFile, err)
		}
	}()

	if strings.HasSuffix(a.OutputFile, ".png") {
		err = renderer.RenderToPNG(out)
	} else {
		err = renderer.RenderToSVG(out)
	}
	if err != nil {
		log.Fatalf("Failed to render floor plan: %v", err)
	}
	fmt.Printf("Created: %s\n", a.OutputFile)
}

// RunExportGeoJSON writes the plan as GeoJSON and exits.
func (a *App) RunExportGeoJSON() {
	config := a.loadConfig()
	plan := a.loadPlan(a.resolvePlanPath(config))

	data, err := tactile.PlanGeoJSONBytes(plan)
	if err != nil {
		log.Fatalf("Failed to export GeoJSON: %v", err)
	}
	if err := os.WriteFile(a.OutputFile, data, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", a.OutputFile, err)
	}
	fmt.Printf("Created: %s\n", a.OutputFile)
}

// RunService starts the exploration service: touch API over HTTP, optional
// MQTT telemetry and remote session control.
func (a *App) RunService() {
	fmt.Println("Starting tactilemap service...")

	config := a.loadConfig()
	a.Config = config

	plan := a.loadPlan(a.resolvePlanPath(config))
	a.Store = tactile.NewFeatureStore(plan)
	a.Session = tactile.NewInteractionSession(a.Store.Count(), a.Logger)
	a.Dispatcher = tactile.NewFeedbackDispatcher(a.Store, a.Logger)
	if config.FeedbackCooldownMs > 0 {
		a.Dispatcher.SetCooldown(time.Duration(config.FeedbackCooldownMs) * time.Millisecond)
	}

	a.Session.OnDiscovery = func(f *tactile.Feature) {
		a.Logger.Info("feature discovered",
			zap.String("feature", f.ID),
			zap.String("name", f.Name))
	}

	// MQTT telemetry and remote control
	if a.MqttMode {
		telemetry, err := tactile.InitTelemetry(config, a.Logger, a.controlHandler())
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		if telemetry == nil {
			log.Fatal("MQTT enabled but no broker configured")
		}
		a.Telemetry = telemetry
		a.Publisher = tactile.NewTelemetryPublisher(telemetry.GetClient(), config.MQTT.PublishPrefix, a.Logger)
		fmt.Println("MQTT telemetry initialized")
	}

	// Start a session immediately when a participant is configured.
	pid := a.Participant
	if pid == "" {
		pid = config.Participant
	}
	cond := a.Condition
	if cond == "" {
		cond = string(config.EffectiveCondition())
	}
	if pid != "" {
		id := a.Session.StartSession(pid, tactile.StudyCondition(cond))
		fmt.Printf("Session started: %s (participant %s)\n", id, pid)
	}

	if a.HttpMode {
		httpServer := newHTTPServer(a)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", a.HttpPort)
			a.Logger.Info("starting HTTP server", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, httpServer); err != nil {
				log.Fatalf("HTTP server error: %v", err)
			}
		}()
	}

	fmt.Println("\nService Running")
	fmt.Println("===============")
	fmt.Printf("Features loaded: %d\n", a.Store.Count())
	if a.HttpMode {
		fmt.Printf("\nHTTP endpoints (port %d):\n", a.HttpPort)
		fmt.Println("  GET  /health          - Health check")
		fmt.Println("  GET  /api/features    - Feature catalog")
		fmt.Println("  GET  /api/summary     - Active session summary")
		fmt.Println("  GET  /api/export.csv  - Combined research export")
		fmt.Println("  GET  /floorplan.svg   - Rendered floor plan")
		fmt.Println("  POST /api/touch       - Process a touch event")
		fmt.Println("  POST /api/gesture     - Record a gesture attempt")
		fmt.Println("  POST /api/session     - Start/end/clear the session")
	}
	if a.MqttMode {
		prefix := config.MQTT.PublishPrefix
		if prefix == "" {
			prefix = tactile.DefaultPublishPrefix
		}
		fmt.Println("\nMQTT topics:")
		fmt.Printf("  %s/events   - interaction telemetry\n", prefix)
		fmt.Printf("  %s/gestures - gesture telemetry\n", prefix)
		fmt.Printf("  %s/summary  - retained session snapshot\n", prefix)
		fmt.Printf("  %s/control  - remote session control\n", prefix)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down service...")
	if a.Telemetry != nil {
		a.Telemetry.Disconnect()
	}
	_ = a.Logger.Sync()
	fmt.Println("Service stopped")
}

// controlHandler maps remote control commands onto the session.
func (a *App) controlHandler() tactile.ControlHandler {
	return func(cmd tactile.ControlCommand) {
		switch cmd.Command {
		case "start_session":
			cond := tactile.StudyCondition(cmd.Condition)
			if cmd.Condition == "" {
				cond = tactile.ConditionUnspecified
			}
			id := a.Session.StartSession(cmd.Participant, cond)
			a.Logger.Info("session started remotely", zap.String("session", id))
		case "end_session":
			if rec := a.Session.EndSession(); rec != nil && a.Publisher != nil {
				if err := a.Publisher.PublishSummary(*rec); err != nil {
					a.Logger.Warn("summary publish failed", zap.Error(err))
				}
			}
		case "clear":
			a.Session.ClearAllData()
		default:
			a.Logger.Warn("unknown control command", zap.String("command", cmd.Command))
		}
	}
}
