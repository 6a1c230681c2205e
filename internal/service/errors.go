package service

import (
	"errors"
	"fmt"

	"github.com/thenamerahulkr/cems/internal/repository"
)

// Error kinds. Every error a service returns to its caller unwraps to one of
// these, so handlers can map them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidState     = errors.New("invalid state")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrExternalService  = errors.New("external service failure")
)

// kindError is a user facing message tagged with its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrUserNotFound         = newError(ErrNotFound, "User not found")
	ErrEventNotFound        = newError(ErrNotFound, "Event not found")
	ErrRegistrationNotFound = newError(ErrNotFound, "Registration not found")
	ErrNotificationNotFound = newError(ErrNotFound, "Notification not found")
	ErrQRNotFound           = newError(ErrNotFound, "Invalid QR code")
	ErrPaymentNotFound      = newError(ErrNotFound, "Payment not found")

	ErrUserEmailExists    = newError(ErrConflict, "User already exists with this email")
	ErrAlreadyRegistered  = newError(ErrConflict, "Already registered for this event")
	ErrAlreadyPaid        = newError(ErrConflict, "Already registered and paid for this event")
	ErrAlreadyCheckedIn   = newError(ErrConflict, "Already checked in")
	ErrPaymentNotCaptured = newError(ErrInvalidState, "Payment is not completed for this registration")

	ErrEventNotApproved        = newError(ErrInvalidState, "Event is not approved yet")
	ErrEventFull               = newError(ErrInvalidState, "Event is full")
	ErrEventFullRefunded       = newError(ErrInvalidState, "Event is full; payment refunded")
	ErrFreeEvent               = newError(ErrInvalidState, "This is a free event. Use regular registration.")
	ErrPaymentVerification     = newError(ErrInvalidState, "Payment verification failed. Invalid signature.")
	ErrPaymentRefunded         = newError(ErrInvalidState, "This payment has already been refunded")
	ErrReplacedOrderRefunded   = newError(ErrInvalidState, "This payment was made through an older checkout and has been refunded")
	ErrNothingToRefund         = newError(ErrInvalidState, "No completed payment to refund")
	ErrCapacityBelowRegistered = newError(ErrInvalidState, "Capacity cannot be lower than the number of registered participants")
	ErrInvalidPrice            = newError(ErrInvalidState, "Paid events must have a price greater than 0")
	ErrNotOrganizer            = newError(ErrNotFound, "Organizer not found")

	ErrWrongCredentials    = newError(ErrUnauthenticated, "Invalid credentials")
	ErrOrganizerPending    = newError(ErrPermissionDenied, "Your organizer account is pending approval")
	ErrOrganizerRejected   = newError(ErrPermissionDenied, "Your organizer account has been rejected")
	ErrAdminSignup         = newError(ErrPermissionDenied, "Admin accounts cannot be created through registration")
	ErrNotOwner            = newError(ErrPermissionDenied, "You are not allowed to modify this resource")
	ErrNotYourRegistration = newError(ErrPermissionDenied, "This registration does not belong to you")
	ErrDeleteSelf          = newError(ErrInvalidState, "You cannot delete your own account")
	ErrInvalidTicket       = newError(ErrPermissionDenied, "Invalid or expired QR token")
	ErrTicketMismatch      = newError(ErrPermissionDenied, "QR token does not match this registration")

	ErrStorageUnavailable = newError(ErrExternalService, "Image storage is not configured")
)

// PaymentRequiredError is returned when a paid event is hit through the free
// registration path.
type PaymentRequiredError struct {
	Price float64
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("This is a paid event (%.2f). Please complete payment to register.", e.Price)
}

func (e *PaymentRequiredError) Unwrap() error { return ErrInvalidState }

// Message returns the text that may be shown to the caller, or "" for an
// unexpected error.
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}

	var pe *PaymentRequiredError
	if errors.As(err, &pe) {
		return pe.Error()
	}

	return ""
}

// gatewayError tags a payment or storage provider failure.
func gatewayError(op string, err error) error {
	return fmt.Errorf("%s -> %w: %w", op, ErrExternalService, err)
}

// translate maps repository errors onto the service taxonomy.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrUserEmailExists):
		return ErrUserEmailExists
	case errors.Is(err, repository.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repository.ErrCapacityBelowRegistered):
		return ErrCapacityBelowRegistered
	case errors.Is(err, repository.ErrRegistrationNotFound):
		return ErrRegistrationNotFound
	case errors.Is(err, repository.ErrRegistrationExists):
		return ErrAlreadyRegistered
	case errors.Is(err, repository.ErrRegistrationCompleted):
		return ErrAlreadyPaid
	case errors.Is(err, repository.ErrRegistrationNotCompleted):
		return ErrNothingToRefund
	case errors.Is(err, repository.ErrEventFull):
		return ErrEventFull
	case errors.Is(err, repository.ErrAlreadyVerified):
		return ErrAlreadyCheckedIn
	case errors.Is(err, repository.ErrNotificationNotFound):
		return ErrNotificationNotFound
	}

	return err
}

// wrap records op in the error chain and maps repository errors.
func wrap(op string, err error) error {
	return fmt.Errorf("%s -> %w", op, translate(err))
}
