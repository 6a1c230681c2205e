package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

var errTokenRequired = errors.New("token: cannot be blank")

type VerifyQRRequest struct {
	EventID uint   `json:"eventId"`
	UserID  uint   `json:"userId"`
	Token   string `json:"token"`
}

// Validate accepts either the signed token or both ids. With requireToken
// the ids alone are not enough.
func (req *VerifyQRRequest) Validate(requireToken bool) error {
	if requireToken && req.Token == "" {
		return errTokenRequired
	}

	if req.Token != "" {
		return nil
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
	)
}
