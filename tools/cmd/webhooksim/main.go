// tools/cmd/webhooksim/main.go
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/example/checkout-gateway/internal/webhook"
)

// Posts a sample gateway notification to a running instance, for checking
// the webhook and conversion path locally.
func main() {
	url := flag.String("url", "http://localhost:3000/webhook/asaas", "webhook endpoint")
	token := flag.String("token", "", "value of the "+webhook.TokenHeader+" header")
	event := flag.String("event", webhook.EventPaymentConfirmed, "notification event")
	payment := flag.String("payment", "pay_sim_000001", "payment id")
	customer := flag.String("customer", "", "customer id (must exist at the gateway for a conversion)")
	value := flag.Float64("value", 5.00, "payment value")
	billing := flag.String("billing", "PIX", "billing type")
	flag.Parse()

	body, err := json.Marshal(webhook.Notification{
		Event: *event,
		Payment: &webhook.Payment{
			ID:            *payment,
			Customer:      *customer,
			Value:         *value,
			BillingType:   *billing,
			Status:        "CONFIRMED",
			ConfirmedDate: time.Now().Format("2006-01-02"),
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set(webhook.TokenHeader, *token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()
	reply, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s %s -> %d %s\n", *event, *payment, resp.StatusCode, bytes.TrimSpace(reply))
}
