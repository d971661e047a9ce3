// Campus Feedback Portal
//
// This is the main entry point for the portal web application: students
// and faculty register, log in through their own portal, keep a profile,
// exchange course feedback and submit campus suggestions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campusvoice/portal/internal/account"
	"github.com/campusvoice/portal/internal/audit"
	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/events"
	"github.com/campusvoice/portal/internal/feedback"
	"github.com/campusvoice/portal/internal/infrastructure/config"
	"github.com/campusvoice/portal/internal/infrastructure/database"
	"github.com/campusvoice/portal/internal/infrastructure/influxdb"
	"github.com/campusvoice/portal/internal/infrastructure/logging"
	"github.com/campusvoice/portal/internal/infrastructure/mqtt"
	"github.com/campusvoice/portal/internal/infrastructure/redis"
	"github.com/campusvoice/portal/internal/profile"
	"github.com/campusvoice/portal/internal/suggestion"
	"github.com/campusvoice/portal/internal/web"
	"github.com/campusvoice/portal/migrations"
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

// startupCheckTimeout bounds the health checks run before serving.
const startupCheckTimeout = 5 * time.Second

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting campus portal",
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

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"environment", cfg.Portal.Environment,
	)

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

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	users := auth.NewUserRepository(db)
	hasher := auth.NewPasswordHasher(cfg.Security.Password)

	store, closeStore, err := openSessionStore(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions := auth.NewSessionManager(store, users, auth.SessionManagerConfig{
		TTL:      cfg.GetSessionTTL(),
		MaxFlash: cfg.Session.MaxFlash,
	}, log)
	if pruned, pruneErr := sessions.Prune(ctx); pruneErr != nil {
		log.Warn("pruning expired sessions", "error", pruneErr)
	} else if pruned > 0 {
		log.Info("expired sessions pruned", "count", pruned)
	}

	authn, err := auth.NewAuthenticator(users, hasher)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	// Event publishing over MQTT (optional)
	var publisher events.Publisher = events.Noop{}
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
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		dispatcher := events.NewDispatcher(events.NewMQTTPublisher(mqttClient), log)
		dispatcher.Start(ctx)
		defer func() {
			log.Info("flushing queued events")
			dispatcher.Stop()
		}()
		publisher = dispatcher
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT event publishing disabled")
	}

	// Usage counters in InfluxDB (optional)
	var metrics web.Metrics
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		metrics = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	recorder := audit.NewRecorder(audit.NewSQLiteRepository(db), log)
	recorder.Start(ctx)
	defer func() {
		log.Info("flushing audit log")
		recorder.Stop()
	}()

	srv, err := web.New(web.Deps{
		HTTP:         cfg.HTTP,
		Session:      cfg.Session,
		CookieSecure: cfg.SessionCookieSecure(),
		PortalName:   cfg.Portal.Name,
		Logger:       log,
		Store:        db,
		Sessions:     sessions,
		Auth:         authn,
		Users:        users,
		Accounts:     account.NewService(db, hasher, cfg.Security.Password.MinLength),
		Profiles:     profile.NewSQLiteRepository(db),
		Feedback:     feedback.NewSQLiteRepository(db),
		Suggestions:  suggestion.NewSQLiteRepository(db),
		Audit:        recorder,
		Events:       publisher,
		Metrics:      metrics,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting web server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing web server", "error", closeErr)
		}
	}()

	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()
	if err := healthCheck(checkCtx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. Web server (drains in-flight requests)
	// 2. Audit recorder
	// 3. InfluxDB, event dispatcher, MQTT (if enabled)
	// 4. Session store, database

	log.Info("campus portal stopped")
	return nil
}

// openSessionStore builds the store selected by session.backend. The
// returned func releases it.
func openSessionStore(ctx context.Context, cfg *config.Config, db *database.DB, log *logging.Logger) (auth.SessionStore, func(), error) {
	if cfg.Session.Backend != config.SessionBackendRedis {
		log.Info("session store ready", "backend", config.SessionBackendSQLite)
		return auth.NewSQLiteSessionStore(db), func() {}, nil
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	log.Info("session store ready", "backend", config.SessionBackendRedis)
	return auth.NewRedisSessionStore(rdb, cfg.Redis.KeyPrefix), func() {
		log.Info("closing Redis connection")
		if closeErr := rdb.Close(); closeErr != nil {
			log.Error("error closing Redis", "error", closeErr)
		}
	}, nil
}

// getConfigPath returns the configuration file path.
// Uses PORTAL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PORTAL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the database and any enabled integrations answer.
// mqttClient and influxClient may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
