package domain

import "time"

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

type Notification struct {
	ID        uint             `json:"id"`
	UserID    uint             `json:"userId"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type MailKind string

const (
	MailWelcome               MailKind = "welcome"
	MailRegistrationConfirmed MailKind = "registration_confirmed"
	MailPaymentConfirmed      MailKind = "payment_confirmed"
	MailOrganizerApproved     MailKind = "organizer_approved"
	MailOrganizerRejected     MailKind = "organizer_rejected"
	MailEventReminder         MailKind = "event_reminder"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxMessage is a persisted intent to send one email.
type OutboxMessage struct {
	ID        uint
	Key       string
	Kind      MailKind
	Recipient string
	Subject   string
	Payload   map[string]interface{}
	Status    OutboxStatus
	Attempts  int
	LastError string
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
