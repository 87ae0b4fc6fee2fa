package gateway

// Billing types as the gateway names them.
const (
	BillingCreditCard = "CREDIT_CARD"
	BillingPix        = "PIX"
)

// Charge statuses observed on the gateway side.
const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
	StatusReceived  = "RECEIVED"
	StatusOverdue   = "OVERDUE"
	StatusDeleted   = "DELETED"
	StatusRefunded  = "REFUNDED"
)

type Customer struct {
	ID                   string `json:"id,omitempty"`
	Name                 string `json:"name,omitempty"`
	Email                string `json:"email,omitempty"`
	CpfCnpj              string `json:"cpfCnpj,omitempty"`
	Phone                string `json:"phone,omitempty"`
	MobilePhone          string `json:"mobilePhone,omitempty"`
	NotificationDisabled bool   `json:"notificationDisabled"`
}

// ContactPhone prefers the mobile number.
func (c Customer) ContactPhone() string {
	if c.MobilePhone != "" {
		return c.MobilePhone
	}
	return c.Phone
}

type CustomerList struct {
	Data []Customer `json:"data"`
}

type Charge struct {
	ID               string  `json:"id,omitempty"`
	Customer         string  `json:"customer"`
	BillingType      string  `json:"billingType"`
	DueDate          string  `json:"dueDate,omitempty"`
	Value            float64 `json:"value,omitempty"`
	InstallmentCount int     `json:"installmentCount,omitempty"`
	InstallmentValue float64 `json:"installmentValue,omitempty"`
	Description      string  `json:"description,omitempty"`
	Status           string  `json:"status,omitempty"`
	ConfirmedDate    string  `json:"confirmedDate,omitempty"`
}

type CreditCard struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CCV         string `json:"ccv"`
}

type CreditCardHolderInfo struct {
	Name          string `json:"name"`
	CpfCnpj       string `json:"cpfCnpj"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber"`
}

type CardPayment struct {
	CreditCard           CreditCard           `json:"creditCard"`
	CreditCardHolderInfo CreditCardHolderInfo `json:"creditCardHolderInfo"`
}

type PixQRCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}
