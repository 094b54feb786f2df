package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/api"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/flow"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/genai"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/handoff"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/knowledge"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/lockfile"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/messaging"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/scheduler"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/session"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/store"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/twiliowhatsapp"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/util"
	"github.com/JAOCruz/Guru-Legal-AI-Bot/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir holds the databases, lock file and saved media.
	DefaultStateDir = "/var/lib/guru-legal"
	// DefaultAppDBFileName is the application SQLite database.
	DefaultAppDBFileName = "guru-legal.db"
	// DefaultWhatsAppDBFileName is the whatsmeow device database.
	DefaultWhatsAppDBFileName = "whatsmeow.db"
	// DefaultMediaDirName is the media directory under the state directory.
	DefaultMediaDirName = "media"

	TransportWhatsApp = "whatsapp"
	TransportTwilio   = "twilio"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

func main() {
	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)
	initializeLogger(*flags.logLevel)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping Guru legal engine", "transport", *flags.transport, "genai_provider", *flags.genaiProvider, "state_dir", *flags.stateDir)
	if err := run(ctx, flags); err != nil {
		slog.Error("Guru legal engine failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Guru legal engine exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir    string
	DatabaseDSN string
	WhatsAppDSN string
	MediaDir    string
	LogLevel    string

	Transport        string
	NumericCode      bool
	TwilioWebhookURL string

	GenAIProvider      string
	GeminiKey          string
	OpenAIKey          string
	GenAIModel         string
	GenAIFallbackModel string
	GenAIRateLimit     int
	GenAIRateWindow    time.Duration
	GenAITimeout       time.Duration
	MediaAnalysis      bool

	SessionTTL time.Duration
	APIAddr    string
	AdminToken string
	SweepCron  string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput      *string
	numeric       *bool
	stateDir      *string
	dbDSN         *string
	whatsappDSN   *string
	mediaDir      *string
	logLevel      *string
	transport     *string
	genaiProvider *string
	apiAddr       *string
	adminToken    *string
	sweepCron     *string
	sessionTTL    *time.Duration

	// env-only settings carried through unchanged
	config Config
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
}

// parseLogLevel maps debug/info/warn/error to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:    util.GetenvDefault("STATE_DIR", DefaultStateDir),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		WhatsAppDSN: os.Getenv("WHATSAPP_DB_DSN"),
		MediaDir:    os.Getenv("MEDIA_DIR"),
		LogLevel:    util.GetenvDefault("LOG_LEVEL", "info"),

		Transport:        strings.ToLower(util.GetenvDefault("TRANSPORT", TransportWhatsApp)),
		NumericCode:      util.ParseBoolEnv("WHATSAPP_NUMERIC_CODE", false),
		TwilioWebhookURL: os.Getenv("TWILIO_WEBHOOK_URL"),

		GenAIProvider:      strings.ToLower(util.GetenvDefault("GENAI_PROVIDER", ProviderGemini)),
		GeminiKey:          os.Getenv("GEMINI_API_KEY"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		GenAIModel:         os.Getenv("GENAI_MODEL"),
		GenAIFallbackModel: os.Getenv("GENAI_FALLBACK_MODEL"),
		GenAIRateLimit:     util.ParseIntEnv("GENAI_RATE_LIMIT", genai.DefaultRateLimit),
		GenAIRateWindow:    util.ParseDurationEnv("GENAI_RATE_WINDOW", genai.DefaultRateWindow, time.Second),
		GenAITimeout:       util.ParseDurationEnv("GENAI_TIMEOUT", genai.DefaultTimeout, time.Second),
		MediaAnalysis:      util.ParseBoolEnv("MEDIA_ANALYSIS", true),

		SessionTTL: util.ParseDurationEnv("SESSION_TTL", session.DefaultTTL, time.Minute),
		APIAddr:    util.GetenvDefault("API_ADDR", api.DefaultAddr),
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		SweepCron:  util.GetenvDefault("SWEEP_CRON", scheduler.DefaultSweepSpec),
	}

	// DATABASE_URL is accepted as the usual hosting alias.
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = os.Getenv("DATABASE_URL")
	}
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultAppDBFileName)
		slog.Debug("No DATABASE_DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = defaultWhatsAppDSN(config.StateDir)
	}
	if config.MediaDir == "" {
		config.MediaDir = filepath.Join(config.StateDir, DefaultMediaDirName)
	}

	slog.Debug("environment variables loaded",
		"STATE_DIR", config.StateDir,
		"DATABASE_DSN_TYPE", store.DetectDSNType(config.DatabaseDSN),
		"TRANSPORT", config.Transport,
		"GENAI_PROVIDER", config.GenAIProvider,
		"GEMINI_API_KEY_SET", config.GeminiKey != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"SESSION_TTL", config.SessionTTL,
		"API_ADDR", config.APIAddr,
		"ADMIN_TOKEN_SET", config.AdminToken != "",
		"SWEEP_CRON", config.SweepCron)

	return config
}

func defaultWhatsAppDSN(stateDir string) string {
	return "file:" + filepath.Join(stateDir, DefaultWhatsAppDBFileName) + "?_foreign_keys=on"
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) Flags {
	flags := Flags{
		qrOutput:      fs.String("qr-output", "", "path to write login QR code"),
		numeric:       fs.Bool("numeric-code", config.NumericCode, "print the raw pairing code instead of a QR (overrides $WHATSAPP_NUMERIC_CODE)"),
		stateDir:      fs.String("state-dir", config.StateDir, "state directory (overrides $STATE_DIR)"),
		dbDSN:         fs.String("db-dsn", config.DatabaseDSN, "application database DSN or SQLite path (overrides $DATABASE_DSN)"),
		whatsappDSN:   fs.String("whatsapp-db-dsn", config.WhatsAppDSN, "whatsmeow device database DSN (overrides $WHATSAPP_DB_DSN)"),
		mediaDir:      fs.String("media-dir", config.MediaDir, "directory for inbound attachments (overrides $MEDIA_DIR)"),
		logLevel:      fs.String("log-level", config.LogLevel, "log level: debug, info, warn, error (overrides $LOG_LEVEL)"),
		transport:     fs.String("transport", config.Transport, "message transport: whatsapp or twilio (overrides $TRANSPORT)"),
		genaiProvider: fs.String("genai-provider", config.GenAIProvider, "generation provider: gemini or openai (overrides $GENAI_PROVIDER)"),
		apiAddr:       fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		adminToken:    fs.String("admin-token", config.AdminToken, "bearer token for the admin API (overrides $ADMIN_TOKEN)"),
		sweepCron:     fs.String("sweep-cron", config.SweepCron, "cron schedule for the expired-session sweep (overrides $SWEEP_CRON)"),
		sessionTTL:    fs.Duration("session-ttl", config.SessionTTL, "session inactivity timeout (overrides $SESSION_TTL)"),
		config:        config,
	}

	if err := fs.Parse(args); err != nil {
		slog.Warn("parseCommandLineFlags: parse failed, keeping defaults", "error", err)
	}

	// Paths derived from the state directory follow a -state-dir override.
	if *flags.stateDir != config.StateDir {
		if *flags.dbDSN == filepath.Join(config.StateDir, DefaultAppDBFileName) {
			*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultAppDBFileName)
		}
		if *flags.whatsappDSN == defaultWhatsAppDSN(config.StateDir) {
			*flags.whatsappDSN = defaultWhatsAppDSN(*flags.stateDir)
		}
		if *flags.mediaDir == filepath.Join(config.StateDir, DefaultMediaDirName) {
			*flags.mediaDir = filepath.Join(*flags.stateDir, DefaultMediaDirName)
		}
		slog.Debug("Updated derived paths based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"mediaDir", *flags.mediaDir,
		"transport", *flags.transport,
		"genaiProvider", *flags.genaiProvider,
		"apiAddr", *flags.apiAddr,
		"adminToken_set", *flags.adminToken != "",
		"sweepCron", *flags.sweepCron,
		"sessionTTL", *flags.sessionTTL)

	return flags
}

// ensureDirectoriesExist creates the state and media directories, and the
// parent of a file-based database.
func ensureDirectoriesExist(flags Flags) error {
	dirs := []string{*flags.stateDir, *flags.mediaDir}
	if store.DetectDSNType(*flags.dbDSN) != "postgres" {
		dirs = append(dirs, filepath.Dir(*flags.dbDSN))
	}
	for _, dir := range dirs {
		slog.Debug("Creating directory", "dir", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// openStore opens the application store selected by the DSN.
func openStore(dsn string) (store.Store, error) {
	if dsn == "" {
		slog.Warn("No database DSN provided, using in-memory store; data is lost on exit")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// buildWhatsAppOptions constructs WhatsApp configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	waOpts := []whatsapp.Option{whatsapp.WithLogLevel(whatsmeowLogLevel(*flags.logLevel))}
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.whatsappDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.whatsappDSN))
	}
	return waOpts
}

// whatsmeowLogLevel maps the process level onto whatsmeow's level names.
func whatsmeowLogLevel(level string) string {
	switch parseLogLevel(level) {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// buildGenAIOptions constructs the generation client options for the provider.
func buildGenAIOptions(flags Flags) []genai.Option {
	cfg := flags.config
	opts := []genai.Option{
		genai.WithTimeout(cfg.GenAITimeout),
		genai.WithRateWindow(genai.NewRateWindow(cfg.GenAIRateLimit, cfg.GenAIRateWindow, nil)),
	}
	switch {
	case cfg.GenAIModel != "":
		opts = append(opts, genai.WithModel(cfg.GenAIModel))
	case *flags.genaiProvider == ProviderOpenAI:
		opts = append(opts, genai.WithModel(genai.DefaultOpenAIModel))
	}
	switch {
	case cfg.GenAIFallbackModel != "":
		opts = append(opts, genai.WithFallbackModel(cfg.GenAIFallbackModel))
	case *flags.genaiProvider == ProviderOpenAI:
		// The Gemini fallback name means nothing to OpenAI.
		opts = append(opts, genai.WithFallbackModel(""))
	}
	return opts
}

// buildGenAIBackend creates the configured backend, or nil when its key is
// not set and the engine runs on deterministic replies only.
func buildGenAIBackend(ctx context.Context, flags Flags) (genai.Backend, error) {
	cfg := flags.config
	switch *flags.genaiProvider {
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, nil
		}
		return genai.NewGeminiBackend(ctx, cfg.GeminiKey)
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, nil
		}
		return genai.NewOpenAIBackend(genai.WithAPIKey(cfg.OpenAIKey))
	default:
		return nil, fmt.Errorf("unknown GENAI_PROVIDER %q (want %s or %s)", *flags.genaiProvider, ProviderGemini, ProviderOpenAI)
	}
}

// buildTransport starts the selected message transport. The returned options
// mount transport endpoints on the API; cleanup releases the connection.
func buildTransport(ctx context.Context, flags Flags) (messaging.Service, []api.Option, func(), error) {
	switch *flags.transport {
	case TransportWhatsApp:
		client, err := whatsapp.NewClient(ctx, buildWhatsAppOptions(flags)...)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		return messaging.NewWhatsAppService(client), nil, client.Disconnect, nil
	case TransportTwilio:
		client, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		svc := messaging.NewTwilioService(client, flags.config.TwilioWebhookURL)
		return svc, []api.Option{api.WithTwilioWebhook(svc.WebhookHandler)}, func() {}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown TRANSPORT %q (want %s or %s)", *flags.transport, TransportWhatsApp, TransportTwilio)
	}
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.adminToken != "" {
		apiOpts = append(apiOpts, api.WithAdminToken(*flags.adminToken))
	}
	return apiOpts
}

// run wires every component and blocks until ctx is cancelled or one of the
// long-running parts fails.
func run(ctx context.Context, flags Flags) error {
	lock, err := lockfile.Acquire(*flags.stateDir)
	if err != nil {
		var lockErr *lockfile.LockError
		if errors.As(err, &lockErr) {
			slog.Error("State directory is in use", "holder", lockErr.Holder.String(), "lock_path", lockErr.LockPath)
		}
		return err
	}
	defer lock.Release()

	st, err := openStore(*flags.dbDSN)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	gate := handoff.NewController(st)
	if err := gate.Load(ctx); err != nil {
		slog.Warn("Failed to load bot settings, using defaults", "error", err)
	}

	kb, err := knowledge.Load()
	if err != nil {
		return fmt.Errorf("failed to load knowledge corpus: %w", err)
	}

	backend, err := buildGenAIBackend(ctx, flags)
	if err != nil {
		return fmt.Errorf("failed to create generation backend: %w", err)
	}
	var gen *genai.Client
	if backend != nil {
		gen = genai.NewClient(backend, append(buildGenAIOptions(flags), genai.WithKnowledge(kb))...)
	} else {
		slog.Warn("No generation API key set, running with deterministic replies only", "provider", *flags.genaiProvider)
	}

	sessions := session.NewManager(st, session.WithTTL(*flags.sessionTTL))
	router := flow.NewRouter(sessions, st, flow.WithGenerator(gen), flow.WithKnowledge(kb))

	svc, transportOpts, cleanup, err := buildTransport(ctx, flags)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer svc.Stop()

	handlerOpts := []messaging.HandlerOption{
		messaging.WithMediaDir(*flags.mediaDir),
		messaging.WithGate(gate),
	}
	if gen != nil && flags.config.MediaAnalysis {
		handlerOpts = append(handlerOpts, messaging.WithAnalyzer(gen))
	}
	handler := messaging.NewHandler(svc, st, router, handlerOpts...)

	server := api.NewServer(svc, st, gate, append(buildAPIOptions(flags), transportOpts...)...)

	sched := scheduler.NewScheduler()
	if err := sched.ScheduleSweep(ctx, *flags.sweepCron, sessions); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return handler.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	slog.Info("Guru legal engine running", "api_addr", *flags.apiAddr, "transport", *flags.transport)
	return g.Wait()
}
