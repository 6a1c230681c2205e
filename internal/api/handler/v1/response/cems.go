package response

import (
	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/payment"
)

type Message struct {
	Message string `json:"message"`
}

type SignupResponse struct {
	Message          string      `json:"message"`
	User             domain.User `json:"user"`
	Token            string      `json:"token,omitempty"`
	RequiresApproval bool        `json:"requiresApproval,omitempty"`
}

type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

type EventResponse struct {
	Message string       `json:"message"`
	Event   domain.Event `json:"event"`
}

type EventsResponse struct {
	Events []domain.Event `json:"events"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	QRCode  string `json:"qrCode"`
	Token   string `json:"token"`
}

// PaymentRequiredResponse is returned when a paid event is registered for
// through the free path.
type PaymentRequiredResponse struct {
	Message string  `json:"message"`
	IsPaid  bool    `json:"isPaid"`
	Price   float64 `json:"price"`
}

type MyEventsResponse struct {
	Events        []domain.Event        `json:"events"`
	Registrations []domain.Registration `json:"registrations"`
}

type ParticipantsResponse struct {
	Participants []domain.Registration `json:"participants"`
}

type VerifyPaymentResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	Registration domain.Registration `json:"registration"`
}

type RefundResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Refund  payment.Refund `json:"refund"`
}

type PaymentDetailsResponse struct {
	Payment map[string]interface{} `json:"payment"`
}

type CheckInResponse struct {
	Message      string              `json:"message"`
	Registration domain.Registration `json:"registration"`
}

type NotificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

type UsersResponse struct {
	Users []domain.User `json:"users"`
}

type UserResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
