// services/api-gateway/handlers/router.go
package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	m "github.com/example/checkout-gateway/pkg/metrics"
)

const serviceName = "api-gateway"

type Deps struct {
	Checkout CheckoutService
	Webhook  WebhookReceiver
	Logger   *zap.Logger

	Env             string
	FrontendURL     string
	StaticDir       string
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, observe(d.Logger))

	// metrics
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API
	api := r.PathPrefix("/api").Subrouter()
	if d.RateLimitMax > 0 && d.RateLimitWindow > 0 {
		api.Use(newIPLimiter(d.RateLimitMax, d.RateLimitWindow).middleware)
	}
	api.HandleFunc("/checkout", CheckoutHandler(d)).Methods(http.MethodPost)
	api.HandleFunc("/checkout/status/{paymentId}", CheckoutStatusHandler(d)).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/status", PaymentStatusHandler(d)).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id}/pixQrCode", PixQRCodeHandler(d)).Methods(http.MethodGet)
	api.HandleFunc("/health", HealthHandler(d.Env)).Methods(http.MethodGet)

	r.HandleFunc("/webhook/asaas", WebhookHandler(d)).Methods(http.MethodPost)

	// static storefront
	if d.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(d.StaticDir)))
	}

	origins := []string{"*"}
	if d.FrontendURL != "" {
		origins = []string{d.FrontendURL}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}

func HealthHandler(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthOut{
			Status:    "ok",
			Env:       env,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

/*************** Middleware ***************/
const requestIDHeader = "X-Request-ID"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// observe records request metrics and an access log line, skipping /metrics.
func observe(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			statusLabel := "FAILED"
			if rec.status >= 200 && rec.status < 400 {
				statusLabel = "SUCCESS"
			}
			took := time.Since(start)
			m.IncRequest(serviceName, statusLabel, r.Method)
			m.ObserveDuration(serviceName, statusLabel, took.Seconds())

			logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("took", took),
				zap.String("request_id", r.Header.Get(requestIDHeader)),
			)
		})
	}
}
