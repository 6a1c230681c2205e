package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrNotConfigured = errors.New("payment gateway is not configured")

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Payment is the part of a gateway payment entity the service acts on.
type Payment struct {
	ID      string
	OrderID string
	Amount  int64
	Status  string
	Notes   map[string]string
}

func (p Payment) IsCaptured() bool {
	return p.Status == "captured"
}

// ParsePayment reads the entity returned by FetchPayment. Razorpay sends an
// empty array instead of an object when a payment has no notes.
func ParsePayment(body map[string]interface{}) Payment {
	p := Payment{
		Amount: toInt64(body["amount"], 0),
		Notes:  map[string]string{},
	}
	p.ID, _ = body["id"].(string)
	p.OrderID, _ = body["order_id"].(string)
	p.Status, _ = body["status"].(string)

	if notes, ok := body["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			p.Notes[k] = fmt.Sprint(v)
		}
	}

	return p
}

type Razorpay struct {
	client *razorpay.Client
	keyID  string
	secret string
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	r := &Razorpay{
		keyID:  keyID,
		secret: keySecret,
	}
	if keyID != "" && keySecret != "" {
		r.client = razorpay.NewClient(keyID, keySecret)
	}

	return r
}

func (r *Razorpay) KeyID() string {
	return r.keyID
}

// CreateOrder opens an order for amount in the smallest currency unit.
func (r *Razorpay) CreateOrder(_ context.Context, amount int64, currency, receipt string, notes map[string]string) (Order, error) {
	if r.client == nil {
		return Order{}, ErrNotConfigured
	}

	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return Order{}, fmt.Errorf("r.client.Order.Create -> %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return Order{}, fmt.Errorf("razorpay order response has no id")
	}

	return Order{
		ID:       id,
		Amount:   toInt64(body["amount"], amount),
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (r *Razorpay) Refund(_ context.Context, paymentID string, amount int64) (Refund, error) {
	if r.client == nil {
		return Refund{}, ErrNotConfigured
	}

	body, err := r.client.Payment.Refund(paymentID, int(amount), nil, nil)
	if err != nil {
		return Refund{}, fmt.Errorf("r.client.Payment.Refund -> %w", err)
	}

	id, _ := body["id"].(string)
	status, _ := body["status"].(string)

	return Refund{
		ID:     id,
		Amount: toInt64(body["amount"], amount),
		Status: status,
	}, nil
}

func (r *Razorpay) FetchPayment(_ context.Context, paymentID string) (map[string]interface{}, error) {
	if r.client == nil {
		return nil, ErrNotConfigured
	}

	body, err := r.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("r.client.Payment.Fetch -> %w", err)
	}

	return body, nil
}

func (r *Razorpay) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(r.secret, orderID, paymentID, signature)
}

// Signature is the hex HMAC-SHA256 of "orderID|paymentID" keyed by secret.
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))

	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	expected := Signature(secret, orderID, paymentID)

	return hmac.Equal([]byte(expected), []byte(signature))
}

func toInt64(v interface{}, fallback int64) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return fallback
	}
}
