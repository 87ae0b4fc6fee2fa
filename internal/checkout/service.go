package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/config"
	"github.com/example/checkout-gateway/internal/gateway"
	apperr "github.com/example/checkout-gateway/pkg/errors"
	m "github.com/example/checkout-gateway/pkg/metrics"
)

const (
	serviceName = "checkout"
	dateLayout  = "2006-01-02"

	// DuplicateCustomerCode is the gateway's "customer already exists" error.
	DuplicateCustomerCode = "J_001"

	defaultPostalCode    = "01310100"
	defaultAddressNumber = "1"

	msgApproved         = "Payment approved successfully!"
	msgCustomerFallback = "failed to create or identify gateway customer"
)

// Gateway is the part of the gateway client the checkout flow needs.
type Gateway interface {
	FindCustomers(ctx context.Context, query url.Values) ([]gateway.Customer, error)
	CreateCustomer(ctx context.Context, in gateway.Customer) (*gateway.Customer, error)
	CreateCharge(ctx context.Context, in gateway.Charge) (*gateway.Charge, error)
	GetCharge(ctx context.Context, id string) (*gateway.Charge, error)
	PayWithCreditCard(ctx context.Context, chargeID string, in gateway.CardPayment) (*gateway.Charge, error)
	PixQRCode(ctx context.Context, chargeID string) (*gateway.PixQRCode, error)
}

type Service struct {
	gw      Gateway
	catalog config.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(gw Gateway, catalog config.Catalog, logger *zap.Logger) *Service {
	return &Service{gw: gw, catalog: catalog, logger: logger.Named(serviceName), now: time.Now}
}

// Submit validates the request, then runs customer resolution, charge
// creation and payment completion strictly in that order.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := s.submit(ctx, req)

	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
	}
	m.ObserveDuration(serviceName, status, time.Since(start).Seconds())
	return res, err
}

func (s *Service) submit(ctx context.Context, req Request) (*Result, error) {
	in, err := validate(req)
	m.Step(serviceName, "VALIDATE", err)
	if err != nil {
		return nil, err
	}

	// 1) customer
	customerID, err := s.resolveCustomer(ctx, in)
	m.Step(serviceName, "CUSTOMER", err)
	if err != nil {
		return nil, err
	}

	// 2) charge
	charge, err := s.gw.CreateCharge(ctx, s.buildCharge(in, customerID))
	m.Step(serviceName, "CHARGE", err)
	if err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	s.logger.Info("charge created", zap.String("payment_id", charge.ID), zap.String("billing_type", string(in.method)))

	// 3) completion
	if in.method == CreditCard {
		err = s.payWithCard(ctx, in, charge.ID)
		m.Step(serviceName, "CARD_PAYMENT", err)
		if err != nil {
			return nil, fmt.Errorf("pay with credit card: %w", err)
		}
		s.logger.Info("card payment approved", zap.String("payment_id", charge.ID))
		return &Result{
			Success:   true,
			PaymentID: charge.ID,
			Status:    gateway.StatusConfirmed,
			Message:   msgApproved,
		}, nil
	}

	qr, err := s.gw.PixQRCode(ctx, charge.ID)
	m.Step(serviceName, "PIX_QRCODE", err)
	if err != nil {
		return nil, fmt.Errorf("fetch pix qr code: %w", err)
	}
	s.logger.Info("pix qr code generated", zap.String("payment_id", charge.ID))
	return &Result{
		Success:        true,
		PaymentID:      charge.ID,
		Status:         gateway.StatusPending,
		QRCode:         qr.EncodedImage,
		PixPayload:     qr.Payload,
		ExpirationDate: qr.ExpirationDate,
	}, nil
}

// resolveCustomer reuses the customer registered under the tax id or creates
// one. A duplicate-identity answer on create is recovered by e-mail lookup.
func (s *Service) resolveCustomer(ctx context.Context, in *validated) (string, error) {
	existing, err := s.gw.FindCustomers(ctx, url.Values{"cpfCnpj": {in.taxID}})
	if err != nil {
		return "", fmt.Errorf("find customer by tax id: %w", err)
	}
	if len(existing) > 0 && existing[0].ID != "" {
		s.logger.Info("existing customer found", zap.String("customer_id", existing[0].ID))
		return existing[0].ID, nil
	}

	created, createErr := s.gw.CreateCustomer(ctx, gateway.Customer{
		Name:    customerName(in.Request),
		Email:   in.Email,
		CpfCnpj: in.taxID,
		Phone:   in.phone,
	})
	if createErr == nil && created != nil && created.ID != "" {
		s.logger.Info("customer created", zap.String("customer_id", created.ID))
		return created.ID, nil
	}
	if createErr != nil {
		s.logger.Warn("customer create failed", zap.Error(createErr))
	}

	var ue *gateway.UpstreamError
	if errors.As(createErr, &ue) && ue.FirstCode() == DuplicateCustomerCode {
		byEmail, err := s.gw.FindCustomers(ctx, url.Values{"email": {in.Email}})
		if err != nil {
			return "", fmt.Errorf("find customer by email: %w", err)
		}
		if len(byEmail) > 0 && byEmail[0].ID != "" {
			s.logger.Info("duplicate customer recovered by email", zap.String("customer_id", byEmail[0].ID))
			return byEmail[0].ID, nil
		}
	}

	msg := msgCustomerFallback
	switch {
	case ue != nil && ue.FirstDescription() != "":
		msg = ue.FirstDescription()
	case ue != nil && ue.Message != "":
		msg = ue.Message
	case createErr != nil && createErr.Error() != "":
		msg = createErr.Error()
	}
	return "", apperr.Wrap(apperr.CodeCustomerResolution, msg, createErr)
}

func (s *Service) buildCharge(in *validated, customerID string) gateway.Charge {
	charge := gateway.Charge{
		Customer:    customerID,
		BillingType: string(in.method),
		DueDate:     s.now().Format(dateLayout),
		Description: s.catalog.Description,
	}
	switch {
	case in.method == CreditCard && in.InstallmentCount > 1:
		charge.InstallmentCount = in.InstallmentCount
		charge.InstallmentValue = InstallmentValue(s.catalog.PriceFull, in.InstallmentCount)
	case in.method == CreditCard:
		charge.Value = s.catalog.PriceFull
	default:
		charge.Value = s.catalog.PriceCash
	}
	return charge
}

// InstallmentValue is total/count rounded to cents.
func InstallmentValue(total float64, count int) float64 {
	if count <= 1 {
		return total
	}
	return decimal.NewFromFloat(total).
		Div(decimal.NewFromInt(int64(count))).
		Round(2).
		InexactFloat64()
}

func (s *Service) payWithCard(ctx context.Context, in *validated, chargeID string) error {
	card := in.Card
	_, err := s.gw.PayWithCreditCard(ctx, chargeID, gateway.CardPayment{
		CreditCard: gateway.CreditCard{
			HolderName:  card.HolderName,
			Number:      stripSpaces(card.Number),
			ExpiryMonth: in.expiryMonth,
			ExpiryYear:  in.expiryYear,
			CCV:         card.CVV,
		},
		CreditCardHolderInfo: gateway.CreditCardHolderInfo{
			Name:          orDefault(in.Name, card.HolderName),
			CpfCnpj:       in.taxID,
			Email:         in.Email,
			Phone:         in.phone,
			PostalCode:    orDefault(card.PostalCode, defaultPostalCode),
			AddressNumber: orDefault(card.AddressNumber, defaultAddressNumber),
		},
	})
	return err
}

// Status is a single passthrough lookup of the charge.
func (s *Service) Status(ctx context.Context, chargeID string) (*gateway.Charge, error) {
	return s.gw.GetCharge(ctx, chargeID)
}

// PixQRCode re-fetches the payment instruction of an existing charge.
func (s *Service) PixQRCode(ctx context.Context, chargeID string) (*gateway.PixQRCode, error) {
	return s.gw.PixQRCode(ctx, chargeID)
}
