package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/example/farescout/internal/auth"
	outboxworker "github.com/example/farescout/internal/outbox"
	"github.com/example/farescout/internal/quote/compare"
	"github.com/example/farescout/internal/quote/domain"
	"github.com/example/farescout/internal/quote/handler"
	"github.com/example/farescout/internal/quote/normalize"
	"github.com/example/farescout/internal/quote/provider"
	"github.com/example/farescout/internal/quote/repository"
	"github.com/example/farescout/pkg/observability"
	outboxpkg "github.com/example/farescout/pkg/outbox"
)

type appConfig struct {
	HTTPAddr        string
	ProviderTimeout time.Duration
	RequestTimeout  time.Duration
	RideCoBaseURL   string
	RideCoToken     string
	RideCoPriority  int
	LynkBaseURL     string
	LynkToken       string
	LynkPriority    int
	SimDiscount     float64
	CurrencyRates   map[string]float64
	JWTSecret       string
	NATSURL         string
	PostgresDSN     string
	OutboxPoll      time.Duration
	OutboxBatch     int
	OutboxRetry     int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.SetupLogger("quote-service")
	defer logger.Sync() //nolint:errcheck

	shutdown, err := observability.SetupTracer(ctx, "quote-service")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	cfg := loadConfig()

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres connect", zap.Error(err))
		}
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("postgres ping", zap.Error(err))
		}
		defer db.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		if conn, err := nats.Connect(cfg.NATSURL, nats.Name("quoteservice")); err == nil {
			natsConn = conn
			defer conn.Drain() //nolint:errcheck
		} else {
			logger.Warn("nats connection failed", zap.Error(err))
		}
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		logger.Fatal("provider registry", zap.Error(err))
	}

	normalizer := normalize.New("USD", cfg.CurrencyRates)
	controller := compare.New(registry, normalizer, logger.Named("compare"), domain.SystemClock{}, compare.Config{
		ProviderTimeout: cfg.ProviderTimeout,
		RequestTimeout:  cfg.RequestTimeout,
	})

	events := buildPublisher(db, natsConn)
	cache := repository.NewMemoryResultCache()
	quoteHTTP := handler.NewHTTP(controller, cache, events, logger.Named("http"))

	r := chi.NewRouter()
	if cfg.JWTSecret != "" {
		r.With(auth.Middleware(cfg.JWTSecret)).Mount("/", quoteHTTP.Router())
	} else {
		r.Mount("/", quoteHTTP.Router())
	}
	r.Mount("/observability", observability.MetricsRouter(readiness(db)))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if db != nil && natsConn != nil {
		relay := outboxworker.NewRelay(db, natsConn, logger.Named("outbox"), outboxworker.RelayConfig{
			PollInterval: cfg.OutboxPoll,
			BatchSize:    cfg.OutboxBatch,
			RetryMax:     cfg.OutboxRetry,
		})
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox relay stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Info("quote service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func buildRegistry(cfg appConfig) (*provider.Registry, error) {
	heuristic := provider.NewTableHeuristic(cfg.SimDiscount)
	return provider.NewRegistry(
		provider.Entry{
			Adapter: provider.NewRideCo(provider.RideCoConfig{
				BaseURL: cfg.RideCoBaseURL,
				Token:   cfg.RideCoToken,
				Timeout: cfg.ProviderTimeout,
			}),
			Priority:  cfg.RideCoPriority,
			Heuristic: heuristic,
		},
		provider.Entry{
			Adapter: provider.NewLynk(provider.LynkConfig{
				BaseURL: cfg.LynkBaseURL,
				Token:   cfg.LynkToken,
				Timeout: cfg.ProviderTimeout,
			}),
			Priority:  cfg.LynkPriority,
			Heuristic: heuristic,
		},
		provider.Entry{
			Adapter:   provider.NewMetroCab(),
			Priority:  0,
			Heuristic: heuristic,
		},
	)
}

// buildPublisher prefers the Postgres outbox when a database is available;
// otherwise events go straight to NATS, or nowhere.
func buildPublisher(db *sql.DB, natsConn *nats.Conn) domain.EventPublisher {
	if db != nil {
		return outboxpkg.NewStore(db, outboxpkg.DefaultSubject)
	}
	if natsConn != nil {
		return outboxpkg.NewPublisher(natsConn, outboxpkg.DefaultSubject)
	}
	return nil
}

func readiness(db *sql.DB) func(context.Context) error {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func loadConfig() appConfig {
	return appConfig{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ProviderTimeout: time.Duration(parseIntEnv("PROVIDER_TIMEOUT_MS", 3000)) * time.Millisecond,
		RequestTimeout:  time.Duration(parseIntEnv("REQUEST_TIMEOUT_MS", 8000)) * time.Millisecond,
		RideCoBaseURL:   getenv("RIDECO_BASE_URL", "https://api.rideco.example"),
		RideCoToken:     os.Getenv("RIDECO_SERVER_TOKEN"),
		RideCoPriority:  parseIntEnv("RIDECO_PRIORITY", 2),
		LynkBaseURL:     getenv("LYNK_BASE_URL", "https://api.lynk.example"),
		LynkToken:       os.Getenv("LYNK_ACCESS_TOKEN"),
		LynkPriority:    parseIntEnv("LYNK_PRIORITY", 1),
		SimDiscount:     parseFloatEnv("SIM_DISCOUNT", 0.90),
		CurrencyRates:   parseRatesEnv("CURRENCY_RATES", map[string]float64{"EUR": 1.08, "GBP": 1.27, "CAD": 0.73}),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		NATSURL:         os.Getenv("NATS_URL"),
		PostgresDSN:     firstNonEmpty(os.Getenv("POSTGRES_DSN"), os.Getenv("DATABASE_URL")),
		OutboxPoll:      time.Duration(parseIntEnv("OUTBOX_POLL_MS", 200)) * time.Millisecond,
		OutboxBatch:     parseIntEnv("OUTBOX_BATCH", 100),
		OutboxRetry:     parseIntEnv("OUTBOX_RETRY_MAX", 3),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseRatesEnv reads "EUR=1.08,GBP=1.27" style rate lists.
func parseRatesEnv(key string, fallback map[string]float64) map[string]float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	rates := make(map[string]float64)
	for _, pair := range strings.Split(v, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if rate, err := strconv.ParseFloat(parts[1], 64); err == nil {
			rates[strings.ToUpper(parts[0])] = rate
		}
	}
	if len(rates) == 0 {
		return fallback
	}
	return rates
}
