package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goqrcode "github.com/skip2/go-qrcode"

	"github.com/thenamerahulkr/cems/internal/domain"
)

var (
	ErrInvalidTicket = errors.New("invalid ticket")
	ErrTicketExpired = errors.New("ticket expired")
)

const dataURLPrefix = "data:image/png;base64,"

// Claims is the payload encoded in a ticket.
type Claims struct {
	jwt.RegisteredClaims
	EventID        uint  `json:"eventId"`
	UserID         uint  `json:"userId"`
	RegistrationID uint  `json:"registrationId"`
	Timestamp      int64 `json:"timestamp"`
}

// Issuer signs tickets and renders them as QR code images.
type Issuer struct {
	key   []byte
	grace time.Duration
	size  int
	now   func() time.Time
}

func NewIssuer(signingKey string, grace time.Duration, size int) *Issuer {
	if size <= 0 {
		size = 256
	}

	return &Issuer{
		key:   []byte(signingKey),
		grace: grace,
		size:  size,
		now:   time.Now,
	}
}

// Issue mints a ticket valid until grace after the event starts.
func (i *Issuer) Issue(eventID, userID, registrationID uint, eventDate time.Time) (domain.Ticket, error) {
	now := i.now()

	expiresAt := eventDate.Add(i.grace)
	if expiresAt.Before(now) {
		expiresAt = now.Add(i.grace)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		EventID:        eventID,
		UserID:         userID,
		RegistrationID: registrationID,
		Timestamp:      now.UnixMilli(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("token.SignedString -> %w", err)
	}

	png, err := goqrcode.Encode(token, goqrcode.Medium, i.size)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("goqrcode.Encode -> %w", err)
	}

	return domain.Ticket{
		Token:   token,
		DataURL: dataURLPrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}

func (i *Issuer) Parse(token string) (Claims, error) {
	claims := Claims{}

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTicketExpired
		}

		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if !parsed.Valid || claims.RegistrationID == 0 {
		return Claims{}, ErrInvalidTicket
	}

	return claims, nil
}
