// services/gateway-stub/main.go
package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/config"
	"github.com/example/checkout-gateway/internal/gatewaystub"
	"github.com/example/checkout-gateway/internal/logger"
	m "github.com/example/checkout-gateway/pkg/metrics"
)

const serviceName = "gateway-stub"

// Serves the in-memory gateway for local runs: point ASAAS_BASE_URL at it.
func main() {
	cfg, err := config.LoadStub()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg.LogEnv)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	stub := gatewaystub.New(cfg.APIKey)
	stub.FailRate = cfg.FailRate

	r := mux.NewRouter()
	r.Use(metricsMiddleware)
	r.Handle("/metrics", promhttp.Handler())
	r.PathPrefix("/").Handler(stub.Handler())

	addr := cfg.HTTPAddr
	lg.Info("listening", zap.String("service", serviceName), zap.String("addr", addr), zap.Float64("fail_rate", stub.FailRate))
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		lg.Fatal("http server", zap.Error(err))
	}
}

/*************** Metrics middleware ***************/
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func metricsMiddleware(next http.Handler) http.Handler {
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
		m.IncRequest(serviceName, statusLabel, r.Method)
		m.ObserveDuration(serviceName, statusLabel, time.Since(start).Seconds())
	})
}
