// KotakeeOS Core - Home Automation Coordinator
//
// This is the main entry point for the KotakeeOS core application.
// The core coordinates a houseful of Arduino-class modules:
//   - Holds the authoritative room/action state model
//   - Runs the reactive input-rule engine (motion timeouts, thresholds)
//   - Serves the client API, WebSocket push stream, and device protocol
//   - Broadcasts changes over MQTT and records history to SQLite
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/api"
	"github.com/kotakee/kotakee-core/internal/devices"
	"github.com/kotakee/kotakee-core/internal/history"
	"github.com/kotakee/kotakee-core/internal/home"
	"github.com/kotakee/kotakee-core/internal/infrastructure/config"
	"github.com/kotakee/kotakee-core/internal/infrastructure/database"
	"github.com/kotakee/kotakee-core/internal/infrastructure/influxdb"
	"github.com/kotakee/kotakee-core/internal/infrastructure/logging"
	"github.com/kotakee/kotakee-core/internal/infrastructure/mqtt"
	"github.com/kotakee/kotakee-core/internal/rules"
	"github.com/kotakee/kotakee-core/internal/weather"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// pruneInterval is how often expired history rows are deleted.
const pruneInterval = 6 * time.Hour

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting KotakeeOS core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Action history store owns its schema
	store, err := history.NewStore(db.DB, log.With("component", "history"))
	if err != nil {
		return fmt.Errorf("initialising history store: %w", err)
	}
	log.Info("history store initialised")

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the home aggregate from the configured topology
	h, err := buildHome(cfg, log)
	if err != nil {
		return fmt.Errorf("building home: %w", err)
	}

	// Wire the rule engine around the home: the home is both the controller
	// the engine actuates through and the gate it consults.
	engine := rules.NewEngine(h, h, rules.ShellRunner{}, log.With("component", "rules"))
	h.SetEngine(engine)

	// Weather service
	weatherSvc := weather.NewService(cfg.Home.ZipCode, cfg.Weather.APIKey)
	h.SetWeatherService(weatherSvc)

	var mqttPublisher *mqtt.EventPublisher
	if mqttClient != nil {
		mqttPublisher = mqtt.NewEventPublisher(mqttClient, log.With("component", "mqtt"))
	}

	// Climate readings fan out to InfluxDB and the MQTT climate topics.
	var telemetry home.MultiTelemetry
	if influxClient != nil {
		telemetry = append(telemetry, influxClient)
	}
	if mqttPublisher != nil {
		telemetry = append(telemetry, mqttPublisher)
	}
	if len(telemetry) > 0 {
		h.SetTelemetry(telemetry)
	}

	// API server (created before the sink wiring so the WebSocket hub exists)
	server, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log.With("component", "api"),
		Home:    h,
		History: store,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Fan events out to every consumer: WebSocket clients, the history
	// store, and the MQTT bus when enabled.
	sinks := home.MultiSink{server.Hub(), store}
	if mqttPublisher != nil {
		sinks = append(sinks, mqttPublisher)
	}
	h.SetEventSink(sinks)

	// Load per-room input rule tables
	if tables, loadErr := rules.LoadTables(cfg.Home.RulesPath); loadErr != nil {
		log.Warn("input rules not loaded, rooms start with empty tables",
			"path", cfg.Home.RulesPath,
			"error", loadErr,
		)
	} else {
		for roomID, table := range tables {
			if modErr := h.ModuleInputModify(roomID, table); modErr != nil {
				log.Warn("skipping rules for unknown room", "room", roomID, "error", modErr)
			}
		}
		log.Info("input rules loaded", "path", cfg.Home.RulesPath, "rooms", len(tables))
	}

	// Initial weather fetch, then periodic refresh
	if weatherErr := h.UpdateWeather(ctx, cfg.Weather.DoNotQuery); weatherErr != nil {
		log.Warn("initial weather fetch failed", "error", weatherErr)
	}
	go weatherLoop(ctx, h, cfg, log)

	// Periodic history pruning
	if cfg.History.RetentionDays > 0 {
		go pruneLoop(ctx, store, cfg.History.RetentionDays, log)
	}

	// Start the API server
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Ask every module to re-report so states converge after a restart
	h.RequestAllActionStates(ctx)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("KotakeeOS core stopped")
	return nil
}

// buildHome assembles rooms and modules from the configured topology.
func buildHome(cfg *config.Config, log *logging.Logger) (*home.Home, error) {
	client := devices.NewClient(cfg.GetDeviceTimeout())

	rooms := make([]*home.Room, 0, len(cfg.Home.Rooms))
	for _, rc := range cfg.Home.Rooms {
		modules := make([]*home.Module, 0, len(rc.Modules))
		for _, mc := range rc.Modules {
			ids, pins := moduleActions(mc)
			modules = append(modules, home.NewModule(
				mc.ID, rc.ID, mc.Address, mc.Virtual, ids, pins,
				client, log.With("module", mc.ID),
			))
		}
		room, err := home.NewRoom(rc.ID, rc.Name, modules, nil)
		if err != nil {
			return nil, fmt.Errorf("room %d: %w", rc.ID, err)
		}
		rooms = append(rooms, room)
	}

	return home.NewHome(rooms, log.With("component", "home")), nil
}

// moduleActions splits a module's configured actions into the ordered id list
// and the pin assignment map.
func moduleActions(mc config.ModuleConfig) ([]action.ID, map[action.ID][]int) {
	ids := make([]action.ID, 0, len(mc.Actions))
	pins := make(map[action.ID][]int, len(mc.Actions))
	for _, ac := range mc.Actions {
		id := action.ID(ac.ID)
		ids = append(ids, id)
		if len(ac.Pins) > 0 {
			pins[id] = ac.Pins
		}
	}
	return ids, pins
}

// getConfigPath returns the configuration file path.
// Uses KOTAKEE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("KOTAKEE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// weatherLoop refreshes weather data on the configured interval.
func weatherLoop(ctx context.Context, h *home.Home, cfg *config.Config, log *logging.Logger) {
	ticker := time.NewTicker(cfg.GetWeatherInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.UpdateWeather(ctx, cfg.Weather.DoNotQuery); err != nil {
				log.Warn("weather refresh failed", "error", err)
			}
		}
	}
}

// pruneLoop deletes expired history rows on a fixed cadence.
func pruneLoop(ctx context.Context, store *history.Store, retentionDays int, log *logging.Logger) {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.Prune(ctx, retention)
			if err != nil {
				log.Warn("history prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("history pruned", "deleted", deleted)
			}
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
