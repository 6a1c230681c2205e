package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/payment"
	"github.com/thenamerahulkr/cems/internal/repository"
)

const maxReceiptLen = 40

type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (payment.Order, error)
	Refund(ctx context.Context, paymentID string, amount int64) (payment.Refund, error)
	FetchPayment(ctx context.Context, paymentID string) (map[string]interface{}, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type PaymentService struct {
	events   EventReader
	regs     RegistrationRepository
	gateway  PaymentGateway
	issuer   TicketIssuer
	notifier Notifier
	mail     MailEnqueuer
	currency string
	now      func() time.Time
}

func NewPaymentService(events EventReader, regs RegistrationRepository, gateway PaymentGateway, issuer TicketIssuer, notifier Notifier, mail MailEnqueuer, currency string) *PaymentService {
	if currency == "" {
		currency = "INR"
	}

	return &PaymentService{
		events:   events,
		regs:     regs,
		gateway:  gateway,
		issuer:   issuer,
		notifier: notifier,
		mail:     mail,
		currency: currency,
		now:      time.Now,
	}
}

// CreateOrder opens a gateway order for a paid event and parks the
// registration as pending until the payment is verified.
func (s *PaymentService) CreateOrder(ctx context.Context, eventID uint, user domain.User) (domain.PaymentOrder, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.PaymentOrder{}, wrap("s.events.FindByID", err)
	}
	if !event.IsApproved() {
		return domain.PaymentOrder{}, ErrEventNotApproved
	}
	if !event.RequiresPayment() {
		return domain.PaymentOrder{}, ErrFreeEvent
	}

	existing, err := s.regs.FindByEventAndUser(ctx, eventID, user.ID)
	if err != nil && !errors.Is(err, repository.ErrRegistrationNotFound) {
		return domain.PaymentOrder{}, fmt.Errorf("s.regs.FindByEventAndUser -> %w", err)
	}
	if err == nil && !existing.CanStartPayment() {
		return domain.PaymentOrder{}, ErrAlreadyPaid
	}
	if event.IsFull() {
		return domain.PaymentOrder{}, ErrEventFull
	}

	receipt := fmt.Sprintf("rcpt_%d_%d_%d", eventID, user.ID, s.now().Unix())
	if len(receipt) > maxReceiptLen {
		receipt = receipt[:maxReceiptLen]
	}

	order, err := s.gateway.CreateOrder(ctx, event.AmountMinor(), s.currency, receipt, map[string]string{
		"eventId":    strconv.FormatUint(uint64(event.ID), 10),
		"userId":     strconv.FormatUint(uint64(user.ID), 10),
		"eventTitle": event.Title,
		"userName":   user.Name,
	})
	if err != nil {
		return domain.PaymentOrder{}, gatewayError("s.gateway.CreateOrder", err)
	}

	reg, err := s.regs.UpsertPending(ctx, eventID, user.ID, order.ID, event.Price)
	if err != nil {
		return domain.PaymentOrder{}, wrap("s.regs.UpsertPending", err)
	}

	zap.L().Info("payment order created",
		zap.String("order_id", order.ID),
		zap.Uint("event_id", eventID),
		zap.Uint("registration_id", reg.ID),
	)

	return domain.PaymentOrder{
		OrderID:        order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		KeyID:          s.gateway.KeyID(),
		RegistrationID: reg.ID,
		EventTitle:     event.Title,
	}, nil
}

// VerifyPayment checks the gateway signature and, when it holds, completes the
// registration and issues its ticket in one write. Verifying a completed
// registration again returns it, issuing the ticket if it has none.
func (s *PaymentService) VerifyPayment(ctx context.Context, user domain.User, conf domain.PaymentConfirmation) (domain.Registration, error) {
	reg, err := s.regs.FindByID(ctx, conf.RegistrationID)
	if err != nil {
		return domain.Registration{}, wrap("s.regs.FindByID", err)
	}
	if reg.UserID != user.ID {
		return domain.Registration{}, ErrNotYourRegistration
	}

	if !s.gateway.VerifySignature(conf.OrderID, conf.PaymentID, conf.Signature) {
		if err = s.regs.MarkFailed(ctx, reg.ID); err != nil {
			zap.L().Error("failed to mark payment failed", zap.Uint("registration_id", reg.ID), zap.Error(err))
		}
		zap.L().Warn("payment verification failed", zap.Uint("registration_id", reg.ID), zap.String("order_id", conf.OrderID))

		return domain.Registration{}, ErrPaymentVerification
	}

	// A genuine payment for an order the registration no longer carries.
	if reg.OrderID != conf.OrderID {
		return domain.Registration{}, s.refundReplacedOrder(ctx, reg, conf)
	}

	if reg.IsCompleted() {
		return ensureTicket(ctx, s.issuer, s.regs, s.events, reg)
	}
	if reg.PaymentStatus == domain.PaymentRefunded {
		return domain.Registration{}, ErrPaymentRefunded
	}

	event, err := s.events.FindByID(ctx, reg.EventID)
	if err != nil {
		return domain.Registration{}, wrap("s.events.FindByID", err)
	}

	completed, err := s.regs.CompletePayment(ctx, reg.ID, conf.PaymentID, ticketMinter(s.issuer, event))
	switch {
	case errors.Is(err, repository.ErrRegistrationCompleted):
		current, err := s.regs.FindByID(ctx, reg.ID)
		if err != nil {
			return domain.Registration{}, wrap("s.regs.FindByID", err)
		}
		return ensureTicket(ctx, s.issuer, s.regs, s.events, current)
	case errors.Is(err, repository.ErrEventFull):
		return domain.Registration{}, s.refundUnseated(ctx, reg, conf.PaymentID)
	case err != nil:
		return domain.Registration{}, wrap("s.regs.CompletePayment", err)
	}

	zap.L().Info("payment verified", zap.String("payment_id", conf.PaymentID), zap.Uint("registration_id", completed.ID))

	s.notifier.Notify(ctx, fmt.Sprintf("Payment successful! You are registered for \"%s\"", event.Title), domain.NotificationSuccess, user.ID)
	if event.OrganizerID != user.ID {
		s.notifier.Notify(ctx, fmt.Sprintf("%s paid and registered for your event \"%s\"", user.Name, event.Title), domain.NotificationInfo, event.OrganizerID)
	}

	payload := eventMailPayload(event)
	payload["amount"] = fmt.Sprintf("%.2f", completed.Amount)
	payload["paymentId"] = conf.PaymentID
	payload["qrCode"] = completed.QRCode
	s.mail.Enqueue(ctx, domain.MailPaymentConfirmed, user, "Payment Successful - "+event.Title, payload)

	return completed, nil
}

// refundReplacedOrder returns the money of a payment made through a checkout
// that was replaced by a newer order, such as a second browser tab. It only
// refunds when the gateway confirms the payment was captured for this event
// and user; anything else is logged for manual follow-up.
func (s *PaymentService) refundReplacedOrder(ctx context.Context, reg domain.Registration, conf domain.PaymentConfirmation) error {
	fields := []zap.Field{
		zap.Uint("registration_id", reg.ID),
		zap.String("order_id", conf.OrderID),
		zap.String("current_order_id", reg.OrderID),
		zap.String("payment_id", conf.PaymentID),
	}

	details, err := s.gateway.FetchPayment(ctx, conf.PaymentID)
	if err != nil {
		zap.L().Error("orphaned payment could not be fetched", append(fields, zap.Error(err))...)
		return gatewayError("s.gateway.FetchPayment", err)
	}

	paid := payment.ParsePayment(details)
	if !paid.IsCaptured() || paid.OrderID != conf.OrderID ||
		paid.Notes["eventId"] != strconv.FormatUint(uint64(reg.EventID), 10) ||
		paid.Notes["userId"] != strconv.FormatUint(uint64(reg.UserID), 10) {
		zap.L().Error("orphaned payment does not match the registration", append(fields, zap.String("status", paid.Status))...)
		return ErrPaymentVerification
	}

	if _, err = s.gateway.Refund(ctx, conf.PaymentID, paid.Amount); err != nil {
		zap.L().Error("refund of orphaned payment failed", append(fields, zap.Error(err))...)
		return gatewayError("s.gateway.Refund", err)
	}

	zap.L().Warn("refunded payment for a replaced order", fields...)
	s.notifier.Notify(ctx, "A payment made through an older checkout has been refunded.", domain.NotificationWarning, reg.UserID)

	return ErrReplacedOrderRefunded
}

// refundUnseated gives the money back for a payment that arrived after the
// last seat was taken.
func (s *PaymentService) refundUnseated(ctx context.Context, reg domain.Registration, paymentID string) error {
	if _, err := s.gateway.Refund(ctx, paymentID, minorUnits(reg.Amount)); err != nil {
		zap.L().Error("refund of unseated payment failed", zap.Uint("registration_id", reg.ID), zap.String("payment_id", paymentID), zap.Error(err))
		return gatewayError("s.gateway.Refund", err)
	}

	if _, err := s.regs.MarkRefunded(ctx, reg.ID); err != nil {
		return wrap("s.regs.MarkRefunded", err)
	}

	s.notifier.Notify(ctx, "The event filled up before your payment completed. Your payment has been refunded.", domain.NotificationWarning, reg.UserID)

	return ErrEventFullRefunded
}

// RefundPayment refunds a completed registration and frees its seat.
func (s *PaymentService) RefundPayment(ctx context.Context, actor domain.User, registrationID uint) (payment.Refund, error) {
	reg, err := s.regs.FindByID(ctx, registrationID)
	if err != nil {
		return payment.Refund{}, wrap("s.regs.FindByID", err)
	}
	if !reg.IsCompleted() || reg.PaymentID == "" {
		return payment.Refund{}, ErrNothingToRefund
	}

	title := ""
	event, err := s.events.FindByID(ctx, reg.EventID)
	switch {
	case err == nil:
		if !actor.CanManage(event.OrganizerID) {
			return payment.Refund{}, ErrNotOwner
		}
		title = event.Title
	case errors.Is(err, repository.ErrEventNotFound):
		if actor.Role != domain.RoleAdmin {
			return payment.Refund{}, ErrNotOwner
		}
	default:
		return payment.Refund{}, fmt.Errorf("s.events.FindByID -> %w", err)
	}

	refund, err := s.gateway.Refund(ctx, reg.PaymentID, minorUnits(reg.Amount))
	if err != nil {
		return payment.Refund{}, gatewayError("s.gateway.Refund", err)
	}

	if _, err = s.regs.MarkRefunded(ctx, reg.ID); err != nil {
		return payment.Refund{}, wrap("s.regs.MarkRefunded", err)
	}

	zap.L().Info("refund processed", zap.String("refund_id", refund.ID), zap.Uint("registration_id", reg.ID))

	message := "Your payment has been refunded"
	if title != "" {
		message = fmt.Sprintf("Your payment for \"%s\" has been refunded", title)
	}
	s.notifier.Notify(ctx, message, domain.NotificationInfo, reg.UserID)

	return refund, nil
}

// PaymentDetails fetches the gateway entity of a payment. Only the payer, the
// organizer of the event and admins may read it.
func (s *PaymentService) PaymentDetails(ctx context.Context, actor domain.User, paymentID string) (map[string]interface{}, error) {
	reg, err := s.regs.FindByPaymentID(ctx, paymentID)
	switch {
	case err == nil:
		if reg.UserID != actor.ID && !s.managesEvent(ctx, actor, reg.EventID) {
			return nil, ErrNotYourRegistration
		}
	case errors.Is(err, repository.ErrRegistrationNotFound):
		if actor.Role != domain.RoleAdmin {
			return nil, ErrPaymentNotFound
		}
	default:
		return nil, fmt.Errorf("s.regs.FindByPaymentID -> %w", err)
	}

	details, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, gatewayError("s.gateway.FetchPayment", err)
	}

	return details, nil
}

func (s *PaymentService) managesEvent(ctx context.Context, actor domain.User, eventID uint) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if actor.Role != domain.RoleOrganizer || !actor.IsApproved() {
		return false
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return false
	}

	return event.OrganizerID == actor.ID
}

func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
