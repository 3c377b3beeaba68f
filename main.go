package main

import (
	"flag"
	"log"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile   = flag.String("config", "config.yaml", "Path to configuration file")
	planFile     = flag.String("plan", "", "Path to floor-plan JSON (overrides config)")
	validateOnly = flag.Bool("validate", false, "Parse and validate the floor plan, then exit")
	renderOnly   = flag.Bool("render", false, "Render the floor plan and exit")
	geojsonOnly  = flag.Bool("export-geojson", false, "Export the floor plan as GeoJSON and exit")
	outputFile   = flag.String("output", "floorplan.svg", "Output file for -render / -export-geojson")
	httpMode     = flag.Bool("http", true, "Enable HTTP API in service mode")
	httpPort     = flag.Int("http-port", 8080, "HTTP server port")
	mqttMode     = flag.Bool("mqtt", false, "Enable MQTT telemetry in service mode")
	participant  = flag.String("participant", "", "Participant id to start a session for (overrides config)")
	condition    = flag.String("condition", "", "Study condition label (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		log.Printf("tactilemap %s", Version)
		return
	}

	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile:  *configFile,
		PlanFile:    *planFile,
		OutputFile:  *outputFile,
		HttpPort:    *httpPort,
		HttpMode:    *httpMode,
		MqttMode:    *mqttMode,
		Participant: *participant,
		Condition:   *condition,
	})

	switch {
	case *validateOnly:
		app.RunValidate()
	case *renderOnly:
		app.RunRender()
	case *geojsonOnly:
		app.RunExportGeoJSON()
	default:
		app.RunService()
	}
}
