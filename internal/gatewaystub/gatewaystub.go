// Package gatewaystub is an in-memory stand-in for the payment gateway REST API.
// It backs the local sandbox service and the end-to-end tests.
package gatewaystub

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/checkout-gateway/internal/gateway"
)

// Routes as counted by Calls.
const (
	RouteFindCustomers  = "GET /customers"
	RouteCreateCustomer = "POST /customers"
	RouteGetCustomer    = "GET /customers/{id}"
	RouteCreateCharge   = "POST /payments"
	RouteGetCharge      = "GET /payments/{id}"
	RoutePayWithCard    = "POST /payments/{id}/payWithCreditCard"
	RoutePixQRCode      = "GET /payments/{id}/pixQrCode"
)

// DeclinedCardNumber is refused by payWithCreditCard.
const DeclinedCardNumber = "5184019740373151"

const duplicateCode = "J_001"

type Gateway struct {
	APIKey string
	// DuplicateOnCreate makes customer creation fail with the duplicate-identity code.
	DuplicateOnCreate bool
	// FailRate is the share (0..1) of requests answered with a 500.
	FailRate float64

	mu        sync.Mutex
	customers map[string]gateway.Customer
	order     []string
	charges   map[string]gateway.Charge
	payments  map[string]gateway.CardPayment
	calls     map[string]int
	rnd       *rand.Rand
}

func New(apiKey string) *Gateway {
	return &Gateway{
		APIKey:    apiKey,
		customers: map[string]gateway.Customer{},
		charges:   map[string]gateway.Charge{},
		payments:  map[string]gateway.CardPayment{},
		calls:     map[string]int{},
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *Gateway) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(g.auth)
	r.HandleFunc("/customers", g.count(RouteFindCustomers, g.findCustomers)).Methods(http.MethodGet)
	r.HandleFunc("/customers", g.count(RouteCreateCustomer, g.createCustomer)).Methods(http.MethodPost)
	r.HandleFunc("/customers/{id}", g.count(RouteGetCustomer, g.getCustomer)).Methods(http.MethodGet)
	r.HandleFunc("/payments", g.count(RouteCreateCharge, g.createCharge)).Methods(http.MethodPost)
	r.HandleFunc("/payments/{id}", g.count(RouteGetCharge, g.getCharge)).Methods(http.MethodGet)
	r.HandleFunc("/payments/{id}/payWithCreditCard", g.count(RoutePayWithCard, g.payWithCard)).Methods(http.MethodPost)
	r.HandleFunc("/payments/{id}/pixQrCode", g.count(RoutePixQRCode, g.pixQRCode)).Methods(http.MethodGet)
	return r
}

// AddCustomer seeds an existing customer and returns it with its id.
func (g *Gateway) AddCustomer(c gateway.Customer) gateway.Customer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.storeCustomer(c)
}

func (g *Gateway) Calls(route string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[route]
}

func (g *Gateway) Charges() []gateway.Charge {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gateway.Charge, 0, len(g.charges))
	for _, c := range g.charges {
		out = append(out, c)
	}
	return out
}

// CardPayment returns what was submitted for a charge's card completion.
func (g *Gateway) CardPayment(chargeID string) (gateway.CardPayment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[chargeID]
	return p, ok
}

func (g *Gateway) storeCustomer(c gateway.Customer) gateway.Customer {
	if c.ID == "" {
		c.ID = "cus_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	if _, ok := g.customers[c.ID]; !ok {
		g.order = append(g.order, c.ID)
	}
	g.customers[c.ID] = c
	return c
}

func (g *Gateway) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.APIKey != "" && r.Header.Get("access_token") != g.APIKey {
			writeErrors(w, http.StatusUnauthorized, gateway.ErrorDetail{Code: "invalid_access_token", Description: "A chave de API informada não pertence a este ambiente"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) count(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.calls[route]++
		fail := g.FailRate > 0 && g.rnd.Float64() < g.FailRate
		g.mu.Unlock()
		if fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "upstream failed"})
			return
		}
		h(w, r)
	}
}

func (g *Gateway) findCustomers(w http.ResponseWriter, r *http.Request) {
	taxID := r.URL.Query().Get("cpfCnpj")
	email := r.URL.Query().Get("email")

	g.mu.Lock()
	defer g.mu.Unlock()
	list := gateway.CustomerList{Data: []gateway.Customer{}}
	for _, id := range g.order {
		c := g.customers[id]
		if (taxID != "" && c.CpfCnpj == taxID) || (email != "" && strings.EqualFold(c.Email, email)) {
			list.Data = append(list.Data, c)
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func (g *Gateway) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in gateway.Customer
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_object", Description: "JSON inválido"})
		return
	}
	if in.Name == "" || in.CpfCnpj == "" {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_customer", Description: "Nome e CPF/CNPJ são obrigatórios"})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DuplicateOnCreate {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: duplicateCode, Description: "Já existe um cliente cadastrado com este CPF/CNPJ"})
		return
	}
	in.ID = ""
	writeJSON(w, http.StatusOK, g.storeCustomer(in))
}

func (g *Gateway) getCustomer(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	c, ok := g.customers[mux.Vars(r)["id"]]
	g.mu.Unlock()
	if !ok {
		writeErrors(w, http.StatusNotFound, gateway.ErrorDetail{Code: "invalid_customer", Description: "Cliente não encontrado"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (g *Gateway) createCharge(w http.ResponseWriter, r *http.Request) {
	var in gateway.Charge
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_object", Description: "JSON inválido"})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.customers[in.Customer]; !ok {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_customer", Description: "Cliente inválido ou não informado"})
		return
	}
	if in.Value <= 0 && (in.InstallmentCount <= 1 || in.InstallmentValue <= 0) {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_value", Description: "Valor da cobrança inválido"})
		return
	}
	in.ID = "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	in.Status = gateway.StatusPending
	g.charges[in.ID] = in
	writeJSON(w, http.StatusOK, in)
}

func (g *Gateway) getCharge(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	c, ok := g.charges[mux.Vars(r)["id"]]
	g.mu.Unlock()
	if !ok {
		writeErrors(w, http.StatusNotFound, gateway.ErrorDetail{Code: "invalid_payment", Description: "Cobrança não encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (g *Gateway) payWithCard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in gateway.CardPayment
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_object", Description: "JSON inválido"})
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.charges[id]
	if !ok {
		writeErrors(w, http.StatusNotFound, gateway.ErrorDetail{Code: "invalid_payment", Description: "Cobrança não encontrada"})
		return
	}
	g.payments[id] = in
	if in.CreditCard.Number == DeclinedCardNumber {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_creditCard", Description: "Transação não autorizada"})
		return
	}
	c.Status = gateway.StatusConfirmed
	c.ConfirmedDate = time.Now().Format("2006-01-02")
	g.charges[id] = c
	writeJSON(w, http.StatusOK, c)
}

func (g *Gateway) pixQRCode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g.mu.Lock()
	c, ok := g.charges[id]
	g.mu.Unlock()
	if !ok || c.BillingType != gateway.BillingPix {
		writeErrors(w, http.StatusBadRequest, gateway.ErrorDetail{Code: "invalid_billingType", Description: "Cobrança não é do tipo Pix"})
		return
	}
	writeJSON(w, http.StatusOK, gateway.PixQRCode{
		EncodedImage:   "iVBORw0KGgo=",
		Payload:        "00020101021226800014br.gov.bcb.pix" + id,
		ExpirationDate: time.Now().Add(24 * time.Hour).Format("2006-01-02 15:04:05"),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, code int, details ...gateway.ErrorDetail) {
	writeJSON(w, code, map[string]any{"errors": details})
}
