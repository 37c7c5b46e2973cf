package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/farescout/internal/quote/domain"
)

// Comparer runs the comparison pipeline for one request.
type Comparer interface {
	Compare(ctx context.Context, req domain.RideRequest) (domain.ComparisonResult, error)
}

// ResultCache replays earlier responses for repeated idempotency keys.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// HTTP exposes the comparison API.
type HTTP struct {
	comparer Comparer
	cache    ResultCache
	events   domain.EventPublisher
	logger   *zap.Logger
}

// NewHTTP constructs a handler. cache and events may be nil.
func NewHTTP(comparer Comparer, cache ResultCache, events domain.EventPublisher, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{comparer: comparer, cache: cache, events: events, logger: logger}
}

// Router builds the chi router with all endpoints and middlewares.
func (h *HTTP) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Post("/v1/quotes/compare", h.compare)
	return r
}

type compareRequest struct {
	Pickup       domain.GeoPoint `json:"pickup"`
	Dropoff      domain.GeoPoint `json:"dropoff"`
	VehicleClass string          `json:"vehicle_class"`
}

func (h *HTTP) compare(w http.ResponseWriter, r *http.Request) {
	var payload compareRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.cache != nil {
		if cached, ok, err := h.cache.Get(r.Context(), key); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	class := payload.VehicleClass
	if class == "" {
		class = string(domain.ClassStandard)
	}

	req := domain.RideRequest{
		ID:      uuid.New(),
		Pickup:  payload.Pickup,
		Dropoff: payload.Dropoff,
		Class:   domain.VehicleClass(class),
	}

	result, err := h.comparer.Compare(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.publish(r, result, req)

	body, err := json.Marshal(result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if key != "" && h.cache != nil {
		if err := h.cache.Put(r.Context(), key, body); err != nil {
			h.logger.Warn("result cache write failed", zap.Error(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// publish emits the audit event; delivery is best-effort and never blocks
// the response.
func (h *HTTP) publish(r *http.Request, result domain.ComparisonResult, req domain.RideRequest) {
	if h.events == nil {
		return
	}
	event := domain.ComparisonEvent{
		RequestID: result.RequestID,
		Class:     req.Class,
		Outcomes:  make(map[string]string, len(result.Estimates)),
		At:        result.GeneratedAt,
	}
	for _, est := range result.Estimates {
		if est.Viable {
			event.Outcomes[est.Provider] = string(est.Source)
		} else {
			event.Outcomes[est.Provider] = "non_viable"
		}
	}
	if result.Winner != nil {
		event.Winner = result.Winner.Provider
		event.Source = result.Winner.Source
	}
	if err := h.events.Publish(r.Context(), event); err != nil {
		h.logger.Warn("event publish failed", zap.Error(err))
	}
}
