// services/api-gateway/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/checkout"
	"github.com/example/checkout-gateway/internal/config"
	"github.com/example/checkout-gateway/internal/conversion"
	"github.com/example/checkout-gateway/internal/gateway"
	"github.com/example/checkout-gateway/internal/grpcserver"
	"github.com/example/checkout-gateway/internal/logger"
	"github.com/example/checkout-gateway/internal/pool"
	"github.com/example/checkout-gateway/internal/webhook"
	"github.com/example/checkout-gateway/services/api-gateway/handlers"
	"github.com/example/checkout-gateway/services/api-gateway/queue"
)

const serviceName = "api-gateway"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg.LogEnv)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	lg = lg.With(zap.String("service", serviceName))

	workers, err := pool.New(cfg.PoolSize, lg)
	if err != nil {
		lg.Fatal("init worker pool", zap.Error(err))
	}

	gw := gateway.NewClient(cfg.Gateway(), lg)
	if cfg.AsaasKey == "" {
		lg.Warn("ASAAS_KEY not configured, gateway calls will be rejected")
	}

	reporter := conversion.NewReporter(cfg.Conversion(), nil, lg)
	if !reporter.Enabled() {
		lg.Warn("conversion reporting disabled, META_PIXEL_ID or META_ACCESS_TOKEN missing")
	}
	dispatcher := conversion.NewDispatcher(reporter, workers, lg)

	var opts []webhook.Option
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		bus := queue.New(brokers, cfg.KafkaEventsTopic)
		defer bus.Close()
		opts = append(opts, webhook.WithEvents(bus, workers))
		lg.Info("publishing payment events", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaEventsTopic))
	}
	receiver := webhook.NewReceiver(cfg.WebhookToken, gw, dispatcher, lg, opts...)

	router := handlers.NewRouter(handlers.Deps{
		Checkout:        checkout.NewService(gw, cfg.Catalog(), lg),
		Webhook:         receiver,
		Logger:          lg,
		Env:             cfg.AsaasEnv,
		FrontendURL:     cfg.FrontendURL,
		StaticDir:       cfg.StaticDir,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var probes *grpcserver.Health
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			lg.Fatal("listen grpc", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
		}
		probes = grpcserver.NewHealth()
		probes.SetServing(true)
		go func() {
			if err := probes.Server.Serve(lis); err != nil {
				lg.Error("grpc health server", zap.Error(err))
			}
		}()
		lg.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		lg.Info("listening",
			zap.String("addr", srv.Addr),
			zap.String("gateway_env", cfg.AsaasEnv),
			zap.String("gateway_url", cfg.Gateway().BaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if probes != nil {
		probes.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown", zap.Error(err))
	}
	if err := workers.Drain(10 * time.Second); err != nil {
		lg.Warn("detached tasks still running at exit", zap.Int("running", workers.Running()), zap.Error(err))
	}
}
