package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/farescout/internal/geocode"
	ratelimitmw "github.com/example/farescout/internal/http/middleware"
	"github.com/example/farescout/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.SetupLogger("api-gateway")
	defer logger.Sync() //nolint:errcheck

	shutdown, err := observability.SetupTracer(ctx, "api-gateway")
	if err != nil {
		logger.Warn("tracer setup failed", zap.Error(err))
	} else {
		defer shutdown(context.Background())
	}

	redisClient := newRedisClient(ctx, logger)
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	var geocoder geocode.Geocoder = geocode.NewNominatimClient(
		os.Getenv("NOMINATIM_URL"),
		getenv("GEOCODER_USER_AGENT", "farescout/1.0"),
		time.Duration(parseIntEnv("GEOCODER_TIMEOUT_MS", 10000))*time.Millisecond,
	)
	if redisClient != nil {
		geocoder = geocode.NewCachedGeocoder(geocoder, redisClient, "",
			time.Duration(parseIntEnv("GEOCODE_CACHE_TTL_SEC", 86400))*time.Second)
	}

	gw := &gateway{
		geocoder: geocoder,
		quotes: newQuoteClient(
			getenv("QUOTE_SERVICE_URL", "http://localhost:8080"),
			time.Duration(parseIntEnv("QUOTE_CLIENT_TIMEOUT_MS", 15000))*time.Millisecond,
		),
		logger: logger.Named("gateway"),
	}

	limiter := ratelimitmw.NewRateLimiter(redisClient, ratelimitmw.RateConfig{
		Rate:  parseFloatEnv("RATE_LOOKUP_RPS", 50),
		Burst: parseFloatEnv("RATE_LOOKUP_BURST", 100),
	}, ratelimitmw.RateConfig{
		Rate:  parseFloatEnv("RATE_QUOTE_RPS", 10),
		Burst: parseFloatEnv("RATE_QUOTE_BURST", 20),
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer)
	if limiter != nil {
		r.Use(limiter.Middleware)
	}
	r.Mount("/observability", observability.MetricsRouter(nil))
	r.Get("/", demoHandler)
	r.Post("/v1/rides/estimate", gw.estimate)
	r.Get("/v1/rides/estimate-text", gw.estimateText)

	srv := &http.Server{Addr: getenv("GATEWAY_ADDR", ":8088"), Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("api gateway listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newRedisClient(ctx context.Context, logger *zap.Logger) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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
