package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/qr"
	"github.com/thenamerahulkr/cems/internal/repository"
)

type CheckInRepository interface {
	FindByEventAndUser(ctx context.Context, eventID, userID uint) (domain.Registration, error)
	MarkVerified(ctx context.Context, eventID, userID uint, at time.Time) (domain.Registration, error)
}

type TicketParser interface {
	Parse(token string) (qr.Claims, error)
}

type CheckInService struct {
	regs   CheckInRepository
	parser TicketParser
	now    func() time.Time
}

func NewCheckInService(regs CheckInRepository, parser TicketParser) *CheckInService {
	return &CheckInService{
		regs:   regs,
		parser: parser,
		now:    time.Now,
	}
}

// CheckIn marks the participant as present. It succeeds once per registration.
func (s *CheckInService) CheckIn(ctx context.Context, eventID, userID uint) (domain.Registration, error) {
	return s.checkIn(ctx, eventID, userID, 0)
}

// CheckInToken validates a scanned ticket before checking the holder in. Ids
// given next to the token must match its claims.
func (s *CheckInService) CheckInToken(ctx context.Context, token string, eventID, userID uint) (domain.Registration, error) {
	claims, err := s.parser.Parse(token)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("s.parser.Parse -> %w: %w", ErrInvalidTicket, err)
	}

	if (eventID != 0 && claims.EventID != eventID) || (userID != 0 && claims.UserID != userID) {
		return domain.Registration{}, ErrTicketMismatch
	}

	return s.checkIn(ctx, claims.EventID, claims.UserID, claims.RegistrationID)
}

func (s *CheckInService) checkIn(ctx context.Context, eventID, userID, registrationID uint) (domain.Registration, error) {
	reg, err := s.regs.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrRegistrationNotFound) {
			return domain.Registration{}, ErrQRNotFound
		}

		return domain.Registration{}, fmt.Errorf("s.regs.FindByEventAndUser -> %w", err)
	}

	if registrationID != 0 && reg.ID != registrationID {
		return domain.Registration{}, ErrTicketMismatch
	}
	if reg.Verified {
		return domain.Registration{}, ErrAlreadyCheckedIn
	}
	if !reg.CanCheckIn() {
		return domain.Registration{}, ErrPaymentNotCaptured
	}

	verified, err := s.regs.MarkVerified(ctx, eventID, userID, s.now())
	if err != nil {
		return domain.Registration{}, wrap("s.regs.MarkVerified", err)
	}

	return verified, nil
}
