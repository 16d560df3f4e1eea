package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mdp/qrterminal/v3"

	"github.com/pawhaus/signage/internal/api"
	"github.com/pawhaus/signage/internal/engine"
	"github.com/pawhaus/signage/internal/genai"
	"github.com/pawhaus/signage/internal/lockfile"
	"github.com/pawhaus/signage/internal/messaging"
	"github.com/pawhaus/signage/internal/models"
	"github.com/pawhaus/signage/internal/poll"
	"github.com/pawhaus/signage/internal/reminder"
	"github.com/pawhaus/signage/internal/scheduler"
	"github.com/pawhaus/signage/internal/store"
	"github.com/pawhaus/signage/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for signage state data
	DefaultStateDir = "/var/lib/signage"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "signage.db"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
	// DefaultSweepExpr drives the reminder feed and tick cadence
	DefaultSweepExpr = "@every 15s"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Guard the state directory against a second instance.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	slog.Info("Bootstrapping signage engine with configured modules")
	if err := run(flags, st); err != nil {
		slog.Error("Signage engine failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Signage engine exited successfully")
}

// run wires the components together and serves the API.
func run(flags Flags, st store.Store) error {
	sched := scheduler.NewScheduler()
	defer sched.Stop()

	var engOpts []engine.Option
	if ft := os.Getenv("FREQUENCY_SLIDE_TYPE"); ft != "" && models.IsValidSlideType(models.SlideType(ft)) {
		engOpts = append(engOpts, engine.WithFrequency(models.SlideType(ft), util.ParseIntEnv("FREQUENCY_N", 0)))
	}
	eng := engine.NewEngine(st, engOpts...)
	if err := eng.Refresh(context.Background()); err != nil {
		// A cold store is not fatal; the first scheduled refresh retries.
		slog.Warn("Initial rotation refresh failed, starting with an empty screen", "error", err)
	}
	if err := eng.Start(sched, *flags.refreshExpr); err != nil {
		return err
	}

	rotator := poll.NewRotator(st, nil)

	tracker := buildTracker()
	if err := registerReminderJobs(sched, st, tracker); err != nil {
		return err
	}

	var apiOpts []api.Option
	if gaClient, err := genai.NewClient(); err != nil {
		slog.Warn("GenAI client not configured, poll suggestions disabled", "error", err)
	} else {
		apiOpts = append(apiOpts, api.WithGenAI(gaClient))
	}

	printCheckinQR(*flags.checkinURL)

	srv := api.NewServer(eng, rotator, tracker, st, apiOpts...)
	return srv.Run(*flags.apiAddr)
}

// buildTracker sets up the reminder tracker, attaching the SMS notifier when
// Twilio credentials are present.
func buildTracker() *reminder.Tracker {
	var opts []reminder.Option
	if sender, err := messaging.NewTwilioSender(); err != nil {
		slog.Debug("Twilio sender not configured, session SMS disabled", "error", err)
	} else {
		slog.Info("Twilio sender configured, session SMS enabled")
		opts = append(opts, reminder.WithNotifier(messaging.NewSessionNotifier(sender)))
	}
	return reminder.NewTracker(opts...)
}

// registerReminderJobs wires the periodic session sweeps feeding the tracker.
func registerReminderJobs(sched *scheduler.Scheduler, st store.Store, tracker *reminder.Tracker) error {
	return sched.AddJob("session-sweep", DefaultSweepExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), api.DefaultRequestTimeout)
		defer cancel()
		now := time.Now()

		if sessions, err := st.ListSessionsNeedingReminder(ctx, now, reminder.DefaultLookahead); err != nil {
			slog.Warn("session-sweep: reminder feed failed", "error", err)
		} else {
			tracker.ObserveReminderFeed(ctx, sessions)
		}
		if checkins, err := st.ListRecentlyCheckedIn(ctx, now, reminder.DefaultWelcomeRetention); err != nil {
			slog.Warn("session-sweep: check-in feed failed", "error", err)
		} else {
			tracker.ObserveCheckins(ctx, checkins)
		}
		tracker.Tick(ctx)
	})
}

// printCheckinQR renders the guest check-in URL as a terminal QR code so
// staff can test the flow from a phone during setup.
func printCheckinQR(url string) {
	if url == "" {
		return
	}
	slog.Info("Guest check-in URL", "url", url)
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:     qrterminal.L,
		Writer:    os.Stdout,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	})
}

// Config holds environment configuration
type Config struct {
	DbDriver    string
	DatabaseURL string
	StateDir    string
	APIAddr     string
	RefreshExpr string
	CheckinURL  string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDriver    *string
	dbDSN       *string
	apiAddr     *string
	refreshExpr *string
	checkinURL  *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DbDriver:    os.Getenv("SIGNAGE_DB_DRIVER"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("SIGNAGE_STATE_DIR"),
		APIAddr:     os.Getenv("API_ADDR"),
		RefreshExpr: os.Getenv("ROTATION_REFRESH"),
		CheckinURL:  os.Getenv("CHECKIN_URL"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SIGNAGE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.APIAddr == "" {
		config.APIAddr = DefaultAPIAddr
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"SIGNAGE_DB_DRIVER", config.DbDriver,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"SIGNAGE_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"ROTATION_REFRESH", config.RefreshExpr,
		"CHECKIN_URL_SET", config.CheckinURL != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for signage data (overrides $SIGNAGE_STATE_DIR)"),
		dbDriver:    flag.String("db-driver", config.DbDriver, "database driver: memory, sqlite3 or postgres (overrides $SIGNAGE_DB_DRIVER)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		refreshExpr: flag.String("rotation-refresh", config.RefreshExpr, "rotation refresh schedule (overrides $ROTATION_REFRESH)"),
		checkinURL:  flag.String("checkin-url", config.CheckinURL, "guest check-in URL printed as a QR code (overrides $CHECKIN_URL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDriver", *flags.dbDriver,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"refreshExpr", *flags.refreshExpr,
		"checkinURL_set", *flags.checkinURL != "")

	// Follow the state directory when the DSN was left at its default.
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if *flags.dbDriver == "memory" {
		return nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

// buildStore selects and opens the configured store backend.
func buildStore(flags Flags) (store.Store, error) {
	driver := *flags.dbDriver
	if driver == "" {
		driver = store.DetectDSNType(*flags.dbDSN)
		if driver == "sqlite" {
			driver = "sqlite3"
		}
	}
	switch driver {
	case "memory":
		slog.Info("Using in-memory store")
		return store.NewInMemoryStore(), nil
	case "postgres":
		slog.Info("Using PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	default:
		slog.Info("Using SQLite store", "db_path", *flags.dbDSN)
		return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
	}
}
