package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/donseba/go-htmx"
	"github.com/joho/godotenv"
	"github.com/myrjola/totem/internal/debugserver"
	"github.com/myrjola/totem/internal/envstruct"
	"github.com/myrjola/totem/internal/errors"
	"github.com/myrjola/totem/internal/kiosk"
	"github.com/myrjola/totem/internal/logging"
	"github.com/myrjola/totem/internal/persistence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"k8s.io/utils/clock"

	_ "time/tzdata" // Kiosk images ship without a zoneinfo database.
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	kiosks         *kiosk.Registry
	htmx           *htmx.HTMX
}

type config struct {
	// Addr is the address the HTTP server listens on.
	Addr string `env:"KIOSK_ADDR" envDefault:"localhost:4000"`
	// DebugAddr serves pprof and Prometheus metrics. Empty disables the debug server.
	DebugAddr string `env:"KIOSK_DEBUG_ADDR" envDefault:"[::1]:6060"`
	// Gateway selects the response store: sheets, sqlite or postgres.
	Gateway string `env:"KIOSK_GATEWAY" envDefault:"sheets"`

	ServiceAccountEmail string `env:"GOOGLE_SERVICE_ACCOUNT_EMAIL" envDefault:""`
	PrivateKey          string `env:"GOOGLE_PRIVATE_KEY" envDefault:""`
	SheetID             string `env:"GOOGLE_SHEET_ID" envDefault:""`
	SheetRange          string `env:"GOOGLE_SHEET_RANGE" envDefault:"A:F"`
	SQLiteURL           string `env:"KIOSK_SQLITE_URL" envDefault:"./kiosk.sqlite3"`
	PostgresURL         string `env:"KIOSK_POSTGRES_URL" envDefault:""`

	InactivityTimeout time.Duration `env:"KIOSK_INACTIVITY_TIMEOUT" envDefault:"3m"`
	Countdown         int           `env:"KIOSK_COUNTDOWN" envDefault:"15"`
	SaveTimeout       time.Duration `env:"KIOSK_SAVE_TIMEOUT" envDefault:"15s"`
	SessionIdleTTL    time.Duration `env:"KIOSK_SESSION_IDLE_TTL" envDefault:"12h"`

	// Sessions still on an untouched welcome screen are dropped much sooner.
	PristineSessionTTL time.Duration `env:"KIOSK_PRISTINE_SESSION_TTL" envDefault:"10m"`

	// Timezone of the submission timestamp.
	Timezone string `env:"KIOSK_TIMEZONE" envDefault:"America/Sao_Paulo"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		err error
		cfg config
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		err = errors.Wrap(err, "load time zone", slog.String("timezone", cfg.Timezone))
		logger.LogAttrs(ctx, slog.LevelWarn, "falling back to UTC timestamps", errors.SlogError(err))
		location = time.UTC
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct // defaults
	)
	if cfg.DebugAddr != "" {
		// Loopback only so that profiles and metrics are not open to the world.
		debugserver.Launch(ctx, cfg.DebugAddr, registry, logger)
	}

	appender, closeAppender := openAppender(ctx, cfg, logger)
	defer closeAppender()

	realClock := clock.RealClock{}
	gateway := persistence.NewGateway(appender, location, realClock, logger)
	kiosks := kiosk.NewRegistry(kiosk.Config{
		InactivityTimeout: cfg.InactivityTimeout,
		Countdown:         cfg.Countdown,
		CountdownTick:     time.Second,
		SaveTimeout:       cfg.SaveTimeout,
	}, realClock, gateway, kiosk.NewMetrics(registry), logger)
	defer kiosks.Close()
	go kiosks.StartJanitor(ctx, time.Minute, cfg.SessionIdleTTL, cfg.PristineSessionTTL)

	sessionManager := scs.New()
	sessionManager.Store = memstore.New()
	sessionManager.Lifetime = cfg.SessionIdleTTL
	sessionManager.IdleTimeout = cfg.SessionIdleTTL
	sessionManager.Cookie.Name = "kiosk_session"

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		kiosks:         kiosks,
		htmx:           htmx.New(),
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	// A missing .env is fine; the environment may be set by the service manager instead.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env", errors.SlogError(errors.Wrap(err, "load .env")))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
