package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository"
)

type RegistrationRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Registration, error)
	FindByEventAndUser(ctx context.Context, eventID, userID uint) (domain.Registration, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Registration, error)
	FindByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error)
	FindByPaymentID(ctx context.Context, paymentID string) (domain.Registration, error)
	CreateWithSeat(ctx context.Context, reg domain.Registration, mint domain.TicketFunc) (domain.Registration, error)
	UpsertPending(ctx context.Context, eventID, userID uint, orderID string, amount float64) (domain.Registration, error)
	CompletePayment(ctx context.Context, id uint, paymentID string, mint domain.TicketFunc) (domain.Registration, error)
	CompleteFree(ctx context.Context, id uint, mint domain.TicketFunc) (domain.Registration, error)
	MarkFailed(ctx context.Context, id uint) error
	MarkRefunded(ctx context.Context, id uint) (domain.Registration, error)
	Delete(ctx context.Context, eventID, userID uint) error
	SaveTicket(ctx context.Context, id uint, ticket domain.Ticket) error
	MarkVerified(ctx context.Context, eventID, userID uint, at time.Time) (domain.Registration, error)
}

type EventReader interface {
	FindByID(ctx context.Context, id uint) (domain.Event, error)
}

type TicketIssuer interface {
	Issue(eventID, userID, registrationID uint, eventDate time.Time) (domain.Ticket, error)
}

type RegistrationService struct {
	events   EventReader
	regs     RegistrationRepository
	issuer   TicketIssuer
	notifier Notifier
	mail     MailEnqueuer
}

func NewRegistrationService(events EventReader, regs RegistrationRepository, issuer TicketIssuer, notifier Notifier, mail MailEnqueuer) *RegistrationService {
	return &RegistrationService{
		events:   events,
		regs:     regs,
		issuer:   issuer,
		notifier: notifier,
		mail:     mail,
	}
}

// Register enrolls the user in a free event and returns the ticket. A paid
// event yields a *PaymentRequiredError and nothing is written. A registration
// left unseated by an abandoned checkout is completed in place.
func (s *RegistrationService) Register(ctx context.Context, eventID uint, user domain.User) (domain.Ticket, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return domain.Ticket{}, wrap("s.events.FindByID", err)
	}
	if !event.IsApproved() {
		return domain.Ticket{}, ErrEventNotApproved
	}

	existing, err := s.regs.FindByEventAndUser(ctx, eventID, user.ID)
	unseated := err == nil
	if err != nil && !errors.Is(err, repository.ErrRegistrationNotFound) {
		return domain.Ticket{}, fmt.Errorf("s.regs.FindByEventAndUser -> %w", err)
	}
	if unseated && existing.IsCompleted() {
		return domain.Ticket{}, ErrAlreadyRegistered
	}

	if event.IsFull() {
		return domain.Ticket{}, ErrEventFull
	}
	if event.RequiresPayment() {
		return domain.Ticket{}, &PaymentRequiredError{Price: event.Price}
	}

	var reg domain.Registration
	if unseated {
		reg, err = s.regs.CompleteFree(ctx, existing.ID, ticketMinter(s.issuer, event))
		if errors.Is(err, repository.ErrRegistrationCompleted) {
			return domain.Ticket{}, ErrAlreadyRegistered
		}
		if err != nil {
			return domain.Ticket{}, wrap("s.regs.CompleteFree", err)
		}
	} else {
		reg, err = s.regs.CreateWithSeat(ctx, domain.Registration{
			EventID:       eventID,
			UserID:        user.ID,
			PaymentStatus: domain.PaymentCompleted,
		}, ticketMinter(s.issuer, event))
		if err != nil {
			return domain.Ticket{}, wrap("s.regs.CreateWithSeat", err)
		}
	}
	ticket := domain.Ticket{Token: reg.QRToken, DataURL: reg.QRCode}

	s.notifier.Notify(ctx, fmt.Sprintf("You have successfully registered for \"%s\"", event.Title), domain.NotificationSuccess, user.ID)
	if event.OrganizerID != user.ID {
		s.notifier.Notify(ctx, fmt.Sprintf("%s registered for your event \"%s\"", user.Name, event.Title), domain.NotificationInfo, event.OrganizerID)
	}

	payload := eventMailPayload(event)
	payload["qrCode"] = ticket.DataURL
	s.mail.Enqueue(ctx, domain.MailRegistrationConfirmed, user, "Registration Confirmed - "+event.Title, payload)

	return ticket, nil
}

// Unregister drops the registration and frees the seat. Paid registrations
// are not refunded here.
func (s *RegistrationService) Unregister(ctx context.Context, eventID, userID uint) error {
	if err := s.regs.Delete(ctx, eventID, userID); err != nil {
		return wrap("s.regs.Delete", err)
	}

	return nil
}

// MyRegistrations lists the registrations of the user, newest first. Entries
// whose event is gone are skipped.
func (s *RegistrationService) MyRegistrations(ctx context.Context, userID uint) ([]domain.Registration, error) {
	found, err := s.regs.FindByUser(ctx, userID)
	if err != nil {
		return nil, wrap("s.regs.FindByUser", err)
	}

	regs := make([]domain.Registration, 0, len(found))
	for _, reg := range found {
		if reg.Event != nil {
			regs = append(regs, reg)
		}
	}

	return regs, nil
}

func (s *RegistrationService) Participants(ctx context.Context, eventID uint) ([]domain.Registration, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, wrap("s.events.FindByID", err)
	}

	regs, err := s.regs.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, wrap("s.regs.FindByEvent", err)
	}

	return regs, nil
}

// ticketMinter signs tickets for seats of event. The seat transaction runs
// it, so a seat never exists without its ticket.
func ticketMinter(issuer TicketIssuer, event domain.Event) domain.TicketFunc {
	return func(reg domain.Registration) (domain.Ticket, error) {
		ticket, err := issuer.Issue(event.ID, reg.UserID, reg.ID, event.Date)
		if err != nil {
			return domain.Ticket{}, fmt.Errorf("issuer.Issue -> %w", err)
		}

		return ticket, nil
	}
}

// ensureTicket mints and stores a ticket for a seated registration that has
// none, such as one seated before tickets were stored with the seat.
func ensureTicket(ctx context.Context, issuer TicketIssuer, regs RegistrationRepository, events EventReader, reg domain.Registration) (domain.Registration, error) {
	if !reg.IsCompleted() || reg.QRToken != "" {
		return reg, nil
	}

	event, err := events.FindByID(ctx, reg.EventID)
	if err != nil {
		return domain.Registration{}, wrap("events.FindByID", err)
	}

	ticket, err := ticketMinter(issuer, event)(reg)
	if err != nil {
		return domain.Registration{}, err
	}

	if err = regs.SaveTicket(ctx, reg.ID, ticket); err != nil {
		zap.L().Error("failed to store ticket", zap.Uint("registration_id", reg.ID), zap.Error(err))
		return domain.Registration{}, wrap("regs.SaveTicket", err)
	}

	reg.QRCode, reg.QRToken = ticket.DataURL, ticket.Token

	return reg, nil
}
