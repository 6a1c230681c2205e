package request

import (
	"errors"
	"strings"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/thenamerahulkr/cems/internal/domain"
)

// At least 6 characters with one letter and one digit. The stdlib regexp
// package has no lookaheads.
const passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d).{6,}$`

var passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)

var errInvalidPassword = errors.New("password must be at least 6 characters long and contain a letter and a number")

type SignupRequest struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Password   string      `json:"password"`
	Role       domain.Role `json:"role"`
	Department string      `json:"department"`
}

func (req *SignupRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.Role, validation.In(domain.RoleStudent, domain.RoleOrganizer, domain.RoleAdmin)),
		validation.Field(&req.Department, validation.Length(0, 100)),
	)
	if err != nil {
		return err
	}

	ok, err := passwordExp.MatchString(req.Password)
	if err != nil || !ok {
		return errInvalidPassword
	}

	return nil
}

func (req *SignupRequest) User() domain.User {
	return domain.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}
