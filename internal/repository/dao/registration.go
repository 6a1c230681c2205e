package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRegistrationNotFound     = errors.New("registration not found")
	ErrRegistrationExists       = errors.New("registration already exists")
	ErrRegistrationCompleted    = errors.New("registration already completed")
	ErrRegistrationNotCompleted = errors.New("registration is not completed")
	ErrEventFull                = errors.New("event is full")
	ErrAlreadyVerified          = errors.New("registration already verified")
)

const registrationUniqueIndex = "idx_registrations_event_user"

// TicketFunc mints the QR code and token of a registration that has just
// been seated. It runs inside the seat transaction, so an error rolls the
// seat back.
type TicketFunc func(reg Registration) (qrCode, qrToken string, err error)

type Registration struct {
	ID            uint   `gorm:"primaryKey"`
	EventID       uint   `gorm:"not null;uniqueIndex:idx_registrations_event_user"`
	Event         *Event `gorm:"foreignKey:EventID"`
	UserID        uint   `gorm:"not null;uniqueIndex:idx_registrations_event_user;index"`
	User          *User  `gorm:"foreignKey:UserID"`
	QRCode        string `gorm:"type:text"`
	QRToken       string `gorm:"type:text"`
	Verified      bool   `gorm:"not null;default:false"`
	VerifiedAt    *time.Time
	PaymentStatus string `gorm:"not null;default:pending;index"` // "pending", "completed", "failed" or "refunded"
	PaymentID     string `gorm:"index"`
	OrderID       string `gorm:"index"`
	Amount        float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).First(&reg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByEventAndUser(ctx context.Context, eventID, userID uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).First(&reg, "event_id = ? AND user_id = ?", eventID, userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByPaymentID(ctx context.Context, paymentID string) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).Preload("Event").First(&reg, "payment_id = ?", paymentID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

// FindByUser returns the registrations of a user newest first, with their
// event loaded. Event is nil when the event has been deleted.
func (d *RegistrationDAO) FindByUser(ctx context.Context, userID uint) ([]Registration, error) {
	var regs []Registration

	err := d.db.WithContext(ctx).
		Preload("Event").
		Preload("Event.Organizer").
		Preload("Event.Participants").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}

	return regs, nil
}

func (d *RegistrationDAO) FindByEvent(ctx context.Context, eventID uint) ([]Registration, error) {
	var regs []Registration

	err := d.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}

	return regs, nil
}

func (d *RegistrationDAO) Count(ctx context.Context) (int64, error) {
	var count int64

	if err := d.db.WithContext(ctx).Model(&Registration{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// InsertWithSeat creates a completed registration, takes a seat and stores
// the ticket in one transaction. The event row is locked while the seat count
// is checked.
func (d *RegistrationDAO) InsertWithSeat(ctx context.Context, reg Registration, ticket TicketFunc) (Registration, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event, err := lockEvent(tx, reg.EventID)
		if err != nil {
			return err
		}

		if err = takeSeat(tx, event, reg.UserID); err != nil {
			return err
		}

		if err = tx.Omit("Event", "User").Create(&reg).Error; err != nil {
			if isUniqueViolation(err, registrationUniqueIndex) {
				return ErrRegistrationExists
			}

			return err
		}

		return attachTicket(tx, &reg, ticket)
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

// UpsertPending attaches a new gateway order to the registration of the
// user, creating it if needed. A completed registration is left untouched.
func (d *RegistrationDAO) UpsertPending(ctx context.Context, eventID, userID uint, orderID string, amount float64) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(forUpdate).First(&reg, "event_id = ? AND user_id = ?", eventID, userID)
		if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		if result.Error == nil {
			if reg.PaymentStatus == "completed" {
				return ErrRegistrationCompleted
			}

			return tx.Model(&reg).Updates(map[string]interface{}{
				"order_id":       orderID,
				"amount":         amount,
				"payment_status": "pending",
				"payment_id":     "",
			}).Error
		}

		reg = Registration{
			EventID:       eventID,
			UserID:        userID,
			OrderID:       orderID,
			Amount:        amount,
			PaymentStatus: "pending",
		}
		if err := tx.Omit("Event", "User").Create(&reg).Error; err != nil {
			if isUniqueViolation(err, registrationUniqueIndex) {
				return ErrRegistrationExists
			}

			return err
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

// CompletePayment marks the registration completed, takes its seat and
// stores the ticket in one transaction. ErrEventFull leaves the registration
// unchanged.
func (d *RegistrationDAO) CompletePayment(ctx context.Context, id uint, paymentID string, ticket TicketFunc) (Registration, error) {
	return d.complete(ctx, id, map[string]interface{}{
		"payment_id": paymentID,
	}, ticket)
}

// CompleteFree seats an unseated registration through the free path. The
// stale order and amount of an abandoned checkout are cleared.
func (d *RegistrationDAO) CompleteFree(ctx context.Context, id uint, ticket TicketFunc) (Registration, error) {
	return d.complete(ctx, id, map[string]interface{}{
		"payment_id": "",
		"order_id":   "",
		"amount":     0,
	}, ticket)
}

func (d *RegistrationDAO) complete(ctx context.Context, id uint, updates map[string]interface{}, ticket TicketFunc) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(forUpdate).First(&reg, id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}

			return result.Error
		}
		if reg.PaymentStatus == "completed" {
			return ErrRegistrationCompleted
		}

		event, err := lockEvent(tx, reg.EventID)
		if err != nil {
			return err
		}

		if err = takeSeat(tx, event, reg.UserID); err != nil {
			return err
		}

		updates["payment_status"] = "completed"
		if err = tx.Model(&Registration{ID: reg.ID}).Updates(updates).Error; err != nil {
			return err
		}

		// Reload so the caller sees exactly what was committed.
		if err = tx.First(&reg, reg.ID).Error; err != nil {
			return err
		}

		return attachTicket(tx, &reg, ticket)
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

// MarkFailed records a failed verification unless the payment already completed.
func (d *RegistrationDAO) MarkFailed(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Model(&Registration{}).
		Where("id = ? AND payment_status <> ?", id, "completed").
		Update("payment_status", "failed").Error
}

// MarkRefunded flips a paid registration to refunded and frees its seat. A
// pending registration is accepted too: its payment was captured but the seat
// could not be taken.
func (d *RegistrationDAO) MarkRefunded(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(forUpdate).First(&reg, id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}

			return result.Error
		}
		if reg.PaymentStatus != "completed" && reg.PaymentStatus != "pending" {
			return ErrRegistrationNotCompleted
		}

		reg.PaymentStatus = "refunded"
		if err := tx.Model(&Registration{ID: reg.ID}).Update("payment_status", reg.PaymentStatus).Error; err != nil {
			return err
		}

		return tx.Where("event_id = ? AND user_id = ?", reg.EventID, reg.UserID).Delete(&EventParticipant{}).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return reg, nil
}

// Delete removes the registration of the user and frees the seat.
func (d *RegistrationDAO) Delete(ctx context.Context, eventID, userID uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&Registration{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrRegistrationNotFound
		}

		return tx.Where("event_id = ? AND user_id = ?", eventID, userID).Delete(&EventParticipant{}).Error
	})
}

func (d *RegistrationDAO) SaveTicket(ctx context.Context, id uint, qrCode, qrToken string) error {
	return d.db.WithContext(ctx).Model(&Registration{ID: id}).Updates(map[string]interface{}{
		"qr_code":  qrCode,
		"qr_token": qrToken,
	}).Error
}

// MarkVerified flips the check-in flag once. A second call returns ErrAlreadyVerified.
func (d *RegistrationDAO) MarkVerified(ctx context.Context, eventID, userID uint, at time.Time) (Registration, error) {
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("event_id = ? AND user_id = ? AND verified = ?", eventID, userID, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": at,
		})
	if result.Error != nil {
		return Registration{}, result.Error
	}

	reg, err := d.FindByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return Registration{}, err
	}
	if result.RowsAffected == 0 {
		return reg, ErrAlreadyVerified
	}

	return reg, nil
}

func attachTicket(tx *gorm.DB, reg *Registration, ticket TicketFunc) error {
	if ticket == nil {
		return nil
	}

	qrCode, qrToken, err := ticket(*reg)
	if err != nil {
		return err
	}

	reg.QRCode, reg.QRToken = qrCode, qrToken

	return tx.Model(&Registration{ID: reg.ID}).Updates(map[string]interface{}{
		"qr_code":  qrCode,
		"qr_token": qrToken,
	}).Error
}

func takeSeat(tx *gorm.DB, event Event, userID uint) error {
	seats, err := countSeats(tx, event.ID)
	if err != nil {
		return err
	}
	if seats >= int64(event.Capacity) {
		return ErrEventFull
	}

	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&EventParticipant{EventID: event.ID, UserID: userID}).Error
}
