package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/thenamerahulkr/cems/internal/domain"
)

type CreateOrderRequest struct {
	EventID uint `json:"eventId"`
}

func (req *CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
	)
}

// VerifyPaymentRequest uses the field names of the Razorpay checkout callback.
type VerifyPaymentRequest struct {
	OrderID        string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	RegistrationID uint   `json:"registrationId"`
}

func (req *VerifyPaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.OrderID, validation.Required),
		validation.Field(&req.PaymentID, validation.Required),
		validation.Field(&req.Signature, validation.Required),
		validation.Field(&req.RegistrationID, validation.Required),
	)
}

func (req *VerifyPaymentRequest) Confirmation() domain.PaymentConfirmation {
	return domain.PaymentConfirmation{
		OrderID:        req.OrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		RegistrationID: req.RegistrationID,
	}
}

type RefundRequest struct {
	RegistrationID uint `json:"registrationId"`
}

func (req *RefundRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.RegistrationID, validation.Required),
	)
}
