package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/repository/dao"
)

var (
	ErrRegistrationNotFound     = dao.ErrRegistrationNotFound
	ErrRegistrationExists       = dao.ErrRegistrationExists
	ErrRegistrationCompleted    = dao.ErrRegistrationCompleted
	ErrRegistrationNotCompleted = dao.ErrRegistrationNotCompleted
	ErrEventFull                = dao.ErrEventFull
	ErrAlreadyVerified          = dao.ErrAlreadyVerified
)

type RegistrationDAO interface {
	FindByID(ctx context.Context, id uint) (dao.Registration, error)
	FindByEventAndUser(ctx context.Context, eventID, userID uint) (dao.Registration, error)
	FindByUser(ctx context.Context, userID uint) ([]dao.Registration, error)
	FindByEvent(ctx context.Context, eventID uint) ([]dao.Registration, error)
	Count(ctx context.Context) (int64, error)
	FindByPaymentID(ctx context.Context, paymentID string) (dao.Registration, error)
	InsertWithSeat(ctx context.Context, reg dao.Registration, ticket dao.TicketFunc) (dao.Registration, error)
	UpsertPending(ctx context.Context, eventID, userID uint, orderID string, amount float64) (dao.Registration, error)
	CompletePayment(ctx context.Context, id uint, paymentID string, ticket dao.TicketFunc) (dao.Registration, error)
	CompleteFree(ctx context.Context, id uint, ticket dao.TicketFunc) (dao.Registration, error)
	MarkFailed(ctx context.Context, id uint) error
	MarkRefunded(ctx context.Context, id uint) (dao.Registration, error)
	Delete(ctx context.Context, eventID, userID uint) error
	SaveTicket(ctx context.Context, id uint, qrCode, qrToken string) error
	MarkVerified(ctx context.Context, eventID, userID uint, at time.Time) (dao.Registration, error)
}

type RegistrationRepository struct {
	dao RegistrationDAO
}

func NewRegistrationRepository(dao RegistrationDAO) *RegistrationRepository {
	return &RegistrationRepository{
		dao: dao,
	}
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (domain.Registration, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return registrationDaoToDomain(found), nil
}

func (r *RegistrationRepository) FindByEventAndUser(ctx context.Context, eventID, userID uint) (domain.Registration, error) {
	found, err := r.dao.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByEventAndUser -> %w", err)
	}

	return registrationDaoToDomain(found), nil
}

func (r *RegistrationRepository) FindByPaymentID(ctx context.Context, paymentID string) (domain.Registration, error) {
	found, err := r.dao.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.FindByPaymentID -> %w", err)
	}

	return registrationDaoToDomain(found), nil
}

func (r *RegistrationRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUser -> %w", err)
	}

	return registrationsDaoToDomain(found), nil
}

func (r *RegistrationRepository) FindByEvent(ctx context.Context, eventID uint) ([]domain.Registration, error) {
	found, err := r.dao.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByEvent -> %w", err)
	}

	return registrationsDaoToDomain(found), nil
}

func (r *RegistrationRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.dao.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("r.dao.Count -> %w", err)
	}

	return count, nil
}

// CreateWithSeat stores a completed registration, its seat and its ticket
// atomically.
func (r *RegistrationRepository) CreateWithSeat(ctx context.Context, reg domain.Registration, mint domain.TicketFunc) (domain.Registration, error) {
	created, err := r.dao.InsertWithSeat(ctx, dao.Registration{
		EventID:       reg.EventID,
		UserID:        reg.UserID,
		PaymentStatus: string(reg.PaymentStatus),
		Amount:        reg.Amount,
	}, ticketFunc(mint))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.InsertWithSeat -> %w", err)
	}

	return registrationDaoToDomain(created), nil
}

func (r *RegistrationRepository) UpsertPending(ctx context.Context, eventID, userID uint, orderID string, amount float64) (domain.Registration, error) {
	reg, err := r.dao.UpsertPending(ctx, eventID, userID, orderID, amount)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.UpsertPending -> %w", err)
	}

	return registrationDaoToDomain(reg), nil
}

func (r *RegistrationRepository) CompletePayment(ctx context.Context, id uint, paymentID string, mint domain.TicketFunc) (domain.Registration, error) {
	reg, err := r.dao.CompletePayment(ctx, id, paymentID, ticketFunc(mint))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.CompletePayment -> %w", err)
	}

	return registrationDaoToDomain(reg), nil
}

func (r *RegistrationRepository) CompleteFree(ctx context.Context, id uint, mint domain.TicketFunc) (domain.Registration, error) {
	reg, err := r.dao.CompleteFree(ctx, id, ticketFunc(mint))
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.CompleteFree -> %w", err)
	}

	return registrationDaoToDomain(reg), nil
}

func ticketFunc(mint domain.TicketFunc) dao.TicketFunc {
	if mint == nil {
		return nil
	}

	return func(reg dao.Registration) (string, string, error) {
		ticket, err := mint(registrationDaoToDomain(reg))
		if err != nil {
			return "", "", err
		}

		return ticket.DataURL, ticket.Token, nil
	}
}

func (r *RegistrationRepository) MarkFailed(ctx context.Context, id uint) error {
	if err := r.dao.MarkFailed(ctx, id); err != nil {
		return fmt.Errorf("r.dao.MarkFailed -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) MarkRefunded(ctx context.Context, id uint) (domain.Registration, error) {
	reg, err := r.dao.MarkRefunded(ctx, id)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.MarkRefunded -> %w", err)
	}

	return registrationDaoToDomain(reg), nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, eventID, userID uint) error {
	if err := r.dao.Delete(ctx, eventID, userID); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) SaveTicket(ctx context.Context, id uint, ticket domain.Ticket) error {
	if err := r.dao.SaveTicket(ctx, id, ticket.DataURL, ticket.Token); err != nil {
		return fmt.Errorf("r.dao.SaveTicket -> %w", err)
	}

	return nil
}

func (r *RegistrationRepository) MarkVerified(ctx context.Context, eventID, userID uint, at time.Time) (domain.Registration, error) {
	reg, err := r.dao.MarkVerified(ctx, eventID, userID, at)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("r.dao.MarkVerified -> %w", err)
	}

	return registrationDaoToDomain(reg), nil
}

func registrationsDaoToDomain(found []dao.Registration) []domain.Registration {
	regs := make([]domain.Registration, len(found))
	for i, reg := range found {
		regs[i] = registrationDaoToDomain(reg)
	}

	return regs
}

func registrationDaoToDomain(reg dao.Registration) domain.Registration {
	out := domain.Registration{
		ID:            reg.ID,
		EventID:       reg.EventID,
		UserID:        reg.UserID,
		QRCode:        reg.QRCode,
		QRToken:       reg.QRToken,
		Verified:      reg.Verified,
		VerifiedAt:    reg.VerifiedAt,
		PaymentStatus: domain.PaymentStatus(reg.PaymentStatus),
		PaymentID:     reg.PaymentID,
		OrderID:       reg.OrderID,
		Amount:        reg.Amount,
		CreatedAt:     reg.CreatedAt,
		UpdatedAt:     reg.UpdatedAt,
	}

	if reg.Event != nil && reg.Event.ID != 0 {
		event := eventDaoToDomain(*reg.Event)
		out.Event = &event
	}
	if reg.User != nil && reg.User.ID != 0 {
		summary := userDaoToDomain(*reg.User).Summary()
		out.User = &summary
	}

	return out
}
