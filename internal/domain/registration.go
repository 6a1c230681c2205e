package domain

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Registration struct {
	ID            uint          `json:"id"`
	EventID       uint          `json:"eventId"`
	UserID        uint          `json:"userId"`
	Event         *Event        `json:"event,omitempty"`
	User          *UserSummary  `json:"user,omitempty"`
	QRCode        string        `json:"qrCode,omitempty"`
	QRToken       string        `json:"qrToken,omitempty"`
	Verified      bool          `json:"verified"`
	VerifiedAt    *time.Time    `json:"verifiedAt,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentID     string        `json:"paymentId,omitempty"`
	OrderID       string        `json:"orderId,omitempty"`
	Amount        float64       `json:"amount"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func (r Registration) IsCompleted() bool {
	return r.PaymentStatus == PaymentCompleted
}

// CanCheckIn is true for a registration that holds a seat and has not been scanned.
func (r Registration) CanCheckIn() bool {
	return r.IsCompleted() && !r.Verified
}

// CanStartPayment is true when a new gateway order may be attached.
func (r Registration) CanStartPayment() bool {
	return r.PaymentStatus != PaymentCompleted
}

// Ticket is what a participant shows at the door.
type Ticket struct {
	Token   string `json:"token"`
	DataURL string `json:"qrCode"`
}

// TicketFunc mints the ticket of a registration that has just been seated.
type TicketFunc func(reg Registration) (Ticket, error)

type PaymentOrder struct {
	OrderID        string `json:"orderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
	RegistrationID uint   `json:"registrationId"`
	EventTitle     string `json:"eventTitle"`
}

type PaymentConfirmation struct {
	OrderID        string
	PaymentID      string
	Signature      string
	RegistrationID uint
}
