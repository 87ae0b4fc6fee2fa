package conversion

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

const EventPurchase = "Purchase"

// Event is one purchase-attribution signal.
type Event struct {
	Name     string
	Email    string
	Phone    string
	Value    float64
	OrderID  string
	Currency string
	TestCode string
}

// EventID is shared with the storefront pixel so the platform counts the
// browser and server signals once.
func (e Event) EventID() string {
	return e.OrderID + "_" + e.Name
}

type userData struct {
	Em []string `json:"em,omitempty"`
	Ph []string `json:"ph,omitempty"`
}

type customData struct {
	Value       float64  `json:"value"`
	Currency    string   `json:"currency"`
	ContentIDs  []string `json:"content_ids"`
	ContentType string   `json:"content_type"`
	OrderID     string   `json:"order_id"`
}

type serverEvent struct {
	EventName    string     `json:"event_name"`
	EventTime    int64      `json:"event_time"`
	ActionSource string     `json:"action_source"`
	EventID      string     `json:"event_id"`
	UserData     userData   `json:"user_data"`
	CustomData   customData `json:"custom_data"`
}

type payload struct {
	Data          []serverEvent `json:"data"`
	TestEventCode string        `json:"test_event_code,omitempty"`
}

func buildUserData(email, phone string) userData {
	var u userData
	if email != "" {
		u.Em = []string{hashNormalized(email)}
	}
	if phone != "" {
		if digits := digitsOnly(phone); digits != "" {
			u.Ph = []string{hashNormalized(digits)}
		}
	}
	return u
}

func hashNormalized(v string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(v))))
	return hex.EncodeToString(sum[:])
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
