package response

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const genericServerMessage = "Something went wrong. Please try again later."

// Err is the error body every endpoint renders.
type Err struct {
	Err        error                  `json:"-"`
	StatusCode int                    `json:"-"`
	Message    string                 `json:"message"`
	Extra      map[string]interface{} `json:"-" swaggerignore:"true"`
}

func (e *Err) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return e.Message
}

// With attaches an extra top level field to the body.
func (e *Err) With(key string, value interface{}) *Err {
	if e.Extra == nil {
		e.Extra = map[string]interface{}{}
	}
	e.Extra[key] = value

	return e
}

func RenderErr(ctx *gin.Context, e *Err) {
	fields := []zap.Field{
		zap.Int("status", e.StatusCode),
		zap.String("path", ctx.FullPath()),
		zap.String("request_id", requestid.Get(ctx)),
		zap.Error(e.Err),
	}

	body := gin.H{"message": e.Message}
	for k, v := range e.Extra {
		body[k] = v
	}

	if e.StatusCode >= http.StatusInternalServerError {
		zap.L().Error(e.Message, fields...)
		if gin.Mode() != gin.ReleaseMode && e.Err != nil {
			body["error"] = e.Err.Error()
		}
	} else {
		zap.L().Debug(e.Message, fields...)
	}

	ctx.AbortWithStatusJSON(e.StatusCode, body)
}

func newErr(status int, err error, msg string) *Err {
	if err == nil {
		err = errors.New(msg)
	}
	if msg == "" {
		msg = err.Error()
	}

	return &Err{
		Err:        err,
		StatusCode: status,
		Message:    msg,
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err, "")
}

func ErrInvalidState(err error, msg string) *Err {
	return newErr(http.StatusBadRequest, err, msg)
}

func ErrUnauthorized(err error, msg string) *Err {
	return newErr(http.StatusUnauthorized, err, msg)
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, err, "Invalid email or password")
}

func ErrForbidden(err error, msg string) *Err {
	return newErr(http.StatusForbidden, err, msg)
}

func ErrNotFound(err error, msg string) *Err {
	return newErr(http.StatusNotFound, err, msg)
}

func ErrConflict(err error, msg string) *Err {
	return newErr(http.StatusConflict, err, msg)
}

func ErrBadGateway(err error, msg string) *Err {
	return newErr(http.StatusBadGateway, err, msg)
}

func ErrServiceUnavailable(err error, msg string) *Err {
	return newErr(http.StatusServiceUnavailable, err, msg)
}

func ErrInternalServerError(err error) *Err {
	return newErr(http.StatusInternalServerError, err, genericServerMessage)
}
