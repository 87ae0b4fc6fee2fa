// services/api-gateway/handlers/payments.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PaymentStatusHandler exposes only status fields; upstream detail stays in the log.
func PaymentStatusHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		charge, err := d.Checkout.Status(r.Context(), id)
		if err != nil {
			d.Logger.Error("fetch payment status", zap.String("payment_id", id), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorOut{Error: "failed to fetch payment"})
			return
		}
		writeJSON(w, http.StatusOK, StatusOut{
			Status:        charge.Status,
			Value:         charge.Value,
			BillingType:   charge.BillingType,
			ConfirmedDate: nullable(charge.ConfirmedDate),
		})
	}
}

func PixQRCodeHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		qr, err := d.Checkout.PixQRCode(r.Context(), id)
		if err != nil {
			d.Logger.Error("fetch pix qr code", zap.String("payment_id", id), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorOut{Error: "failed to fetch Pix QR code"})
			return
		}
		writeJSON(w, http.StatusOK, PixQRCodeOut{
			EncodedImage:   qr.EncodedImage,
			Payload:        qr.Payload,
			ExpirationDate: qr.ExpirationDate,
		})
	}
}
