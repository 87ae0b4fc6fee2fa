// cmd/events-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/leekchan/accounting"
	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/config"
	"github.com/example/checkout-gateway/internal/logger"
	"github.com/example/checkout-gateway/internal/webhook"
	"github.com/example/checkout-gateway/services/api-gateway/queue"
)

// Consumes the payment events the webhook receiver publishes and writes a
// settlement log line per event.
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
	lg = lg.Named("events-worker")

	brokers := cfg.KafkaBrokerList()
	if len(brokers) == 0 {
		lg.Fatal("KAFKA_BROKERS not configured")
	}
	r := queue.NewReader(brokers, cfg.KafkaEventsTopic, cfg.KafkaGroupID)
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	money := accounting.Accounting{Symbol: "R$ ", Precision: 2, Thousand: ".", Decimal: ","}
	lg.Info("started", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaEventsTopic), zap.String("group", cfg.KafkaGroupID))
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				lg.Error("read", zap.Error(err))
			}
			return
		}
		var ev webhook.PaymentEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			lg.Warn("bad message", zap.ByteString("key", msg.Key), zap.Error(err))
			continue
		}
		lg.Info("payment event",
			zap.String("event", ev.Event),
			zap.String("payment_id", ev.PaymentID),
			zap.String("customer_id", ev.CustomerID),
			zap.String("status", ev.Status),
			zap.String("billing_type", ev.BillingType),
			zap.String("value", money.FormatMoney(ev.Value)),
			zap.Time("received_at", ev.ReceivedAt),
			zap.Int64("offset", msg.Offset),
		)
	}
}
