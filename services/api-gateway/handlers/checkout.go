// services/api-gateway/handlers/checkout.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/checkout"
	"github.com/example/checkout-gateway/internal/gateway"
)

const maxBodyBytes = 1 << 20

type CheckoutService interface {
	Submit(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	Status(ctx context.Context, chargeID string) (*gateway.Charge, error)
	PixQRCode(ctx context.Context, chargeID string) (*gateway.PixQRCode, error)
}

// CheckoutHandler answers 200 with the result or 400 with a single message.
func CheckoutHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CheckoutIn
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorOut{Error: "invalid request body"})
			return
		}

		res, err := d.Checkout.Submit(r.Context(), in.ToRequest())
		if err != nil {
			msg := checkout.ErrorMessage(err)
			if checkout.IsValidation(err) {
				d.Logger.Info("checkout rejected", zap.String("reason", msg))
			} else {
				d.Logger.Error("checkout failed", zap.String("reason", msg), zap.Error(err))
			}
			writeJSON(w, http.StatusBadRequest, ErrorOut{Error: msg})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func CheckoutStatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		charge, err := d.Checkout.Status(r.Context(), mux.Vars(r)["paymentId"])
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorOut{Error: checkout.ErrorMessage(err)})
			return
		}
		writeJSON(w, http.StatusOK, StatusOut{
			ID:            charge.ID,
			Status:        charge.Status,
			Value:         charge.Value,
			BillingType:   charge.BillingType,
			ConfirmedDate: nullable(charge.ConfirmedDate),
		})
	}
}
