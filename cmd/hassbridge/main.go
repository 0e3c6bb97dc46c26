// HASS Bridge Core - Home Assistant command invocation engine.
//
// This is the main entry point. The bridge connects to a Home Assistant
// instance, synthesizes an invokable command for every service in its
// schema, and exposes the inventory plus operational endpoints over a
// small HTTP API. The chat runtime that registers and renders the
// commands lives outside this process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hassbridge/hassbridge-core/internal/api"
	"github.com/hassbridge/hassbridge-core/internal/audit"
	"github.com/hassbridge/hassbridge-core/internal/builtin"
	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/hass"
	"github.com/hassbridge/hassbridge-core/internal/icons"
	"github.com/hassbridge/hassbridge-core/internal/infrastructure/config"
	"github.com/hassbridge/hassbridge-core/internal/infrastructure/database"
	"github.com/hassbridge/hassbridge-core/internal/infrastructure/influxdb"
	"github.com/hassbridge/hassbridge-core/internal/infrastructure/logging"
	"github.com/hassbridge/hassbridge-core/internal/infrastructure/mqtt"
	"github.com/hassbridge/hassbridge-core/internal/relation"
	"github.com/hassbridge/hassbridge-core/internal/schema"
	"github.com/hassbridge/hassbridge-core/internal/session"
	"github.com/hassbridge/hassbridge-core/internal/snapshot"
	"github.com/hassbridge/hassbridge-core/internal/suggest"
	"github.com/hassbridge/hassbridge-core/internal/synth"
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

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting HASS Bridge Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	// Open the usage log database
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
	if err := db.EnsureSchema(ctx, audit.Schema()); err != nil {
		return fmt.Errorf("applying usage log schema: %w", err)
	}
	usageLog := audit.NewRepository(db.DB)
	log.Info("database connected", "path", cfg.Database.Path)

	// Connect the Home Assistant boundary client
	ha, err := hass.NewClient(hass.Config{
		URL:     cfg.HomeAssistant.URL,
		Token:   cfg.HomeAssistant.Token,
		Timeout: cfg.HomeAssistant.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating Home Assistant client: %w", err)
	}
	ha.SetLogger(log.With("component", "hass"))

	// Snapshot cache over the upstream collections
	cache := snapshot.New(ha, cfg.Cache.Capacity, cfg.Cache.TTL)
	cache.SetLogger(log.With("component", "snapshot"))

	// Resolver and suggestion source share the cached directory
	resolver := relation.NewResolver(cache)
	resolver.SetLogger(log.With("component", "relation"))
	source := suggest.New(cache, resolver, cfg.Suggest.MaxChoices, cfg.Suggest.Tolerance)

	// Multi-value selection sessions
	store := session.NewStore(cfg.Sessions.Capacity, cfg.Sessions.TTL)
	protocol := session.NewProtocol(store, cfg.Suggest.MaxChoices)

	// Synthesize the command inventory from the live service schema
	builder := synth.NewBuilder(source, protocol, ha)
	builder.SetLogger(log.With("component", "synth"))

	if cfg.Icons.Path != "" {
		catalog, loadErr := icons.Load(cfg.Icons.Path)
		if loadErr != nil {
			log.Warn("icon catalog unavailable, icon pickers degrade to free text",
				"path", cfg.Icons.Path, "error", loadErr)
		} else {
			builder.SetIconCatalog(catalog.Choices())
			log.Info("icon catalog loaded", "icons", catalog.Len())
		}
	}

	raw, err := cache.ServicesRaw(ctx)
	if err != nil {
		return fmt.Errorf("fetching service schema: %w", err)
	}
	domains, err := schema.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing service schema: %w", err)
	}
	commands := builder.SynthesizeAll(domains)
	log.Info("commands synthesized", "domains", len(domains), "commands", len(commands))

	// Fixed inspection and conversation commands
	commands = append(commands, builtin.New(cache, source, ha).Definitions()...)

	// Connect to MQTT broker (optional)
	var announcer *mqtt.Announcer
	if cfg.MQTT.Enabled {
		announcer, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := announcer.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var recorder *influxdb.Recorder
	if cfg.InfluxDB.Enabled {
		recorder, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		recorder.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Every invocation flows through the usage log and metrics
	commands = instrumentCommands(commands, usageLog, recorder, announcer, log)

	// Start the operational API
	var server *api.Server
	if cfg.API.Enabled {
		server, err = api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.With("component", "api"),
			Cache:    cache,
			Commands: commands,
			Audit:    usageLog,
			Version:  version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, db, announcer, recorder, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if announcer != nil {
		if announceErr := announcer.Announce("inventory_rebuilt", map[string]any{
			"commands": len(commands),
		}); announceErr != nil {
			log.Warn("announcing inventory failed", "error", announceErr)
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"commands", len(commands))

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("HASS Bridge Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HASSBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HASSBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// instrumentCommands wraps every definition's Invoke so outcomes reach the
// usage log, the metrics recorder, and the MQTT announcer. Instrumentation
// failures are logged and never affect the invocation result.
func instrumentCommands(defs []command.Definition, usageLog *audit.Repository, recorder *influxdb.Recorder, announcer *mqtt.Announcer, log *logging.Logger) []command.Definition {
	out := make([]command.Definition, len(defs))
	for i, def := range defs {
		def := def
		inner := def.Invoke
		qualified := def.QualifiedName()
		def.Invoke = func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
			start := time.Now()
			res, err := inner(ctx, userID, args)
			duration := time.Since(start)

			entry := audit.Entry{
				Command:    qualified,
				UserID:     userID,
				Args:       args,
				Success:    err == nil,
				DurationMs: duration.Milliseconds(),
			}
			if err != nil {
				entry.Error = err.Error()
			}
			if _, recordErr := usageLog.Record(ctx, entry); recordErr != nil {
				log.Error("recording invocation failed", "command", qualified, "error", recordErr)
			}

			if recorder != nil {
				recorder.WriteInvocationMetric(qualified, err == nil, duration)
			}
			if announcer != nil && err != nil {
				if announceErr := announcer.Announce("invocation_failed", map[string]any{
					"command": qualified,
				}); announceErr != nil {
					log.Warn("announcing failure failed", "error", announceErr)
				}
			}

			return res, err
		}
		out[i] = def
	}
	return out
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - announcer: MQTT announcer to check (may be nil if disabled)
//   - recorder: InfluxDB recorder to check (may be nil if disabled)
//   - server: API server to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, announcer *mqtt.Announcer, recorder *influxdb.Recorder, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if announcer != nil {
		if err := announcer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if recorder != nil {
		if err := recorder.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if server != nil {
		if err := server.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}
	return nil
}
