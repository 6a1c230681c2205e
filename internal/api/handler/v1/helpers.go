package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/api/middleware"
	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/service"
)

var (
	errNoUser    = errors.New("no authenticated user on context")
	errInvalidID = errors.New("invalid id")
)

func getUserFromContext(ctx *gin.Context) (domain.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errNoUser, "Not authenticated"))
		return domain.User{}, false
	}

	return user, true
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("%w: %s", errInvalidID, name)))
		return 0, false
	}

	return uint(id), true
}

// renderServiceErr maps the service error kinds onto HTTP statuses.
func renderServiceErr(ctx *gin.Context, op string, err error) {
	msg := service.Message(err)
	err = fmt.Errorf("%s -> %w", op, err)

	var paymentRequired *service.PaymentRequiredError
	if errors.As(err, &paymentRequired) {
		response.RenderErr(ctx, response.ErrInvalidState(err, msg).
			With("isPaid", true).
			With("price", paymentRequired.Price))
		return
	}

	switch {
	case errors.Is(err, service.ErrStorageUnavailable):
		response.RenderErr(ctx, response.ErrServiceUnavailable(err, msg))
	case errors.Is(err, service.ErrNotFound):
		response.RenderErr(ctx, response.ErrNotFound(err, orDefault(msg, "Not found")))
	case errors.Is(err, service.ErrConflict):
		response.RenderErr(ctx, response.ErrConflict(err, orDefault(msg, "Conflict")))
	case errors.Is(err, service.ErrInvalidState):
		response.RenderErr(ctx, response.ErrInvalidState(err, orDefault(msg, "Invalid request")))
	case errors.Is(err, service.ErrPermissionDenied):
		response.RenderErr(ctx, response.ErrForbidden(err, orDefault(msg, "Access denied")))
	case errors.Is(err, service.ErrUnauthenticated):
		response.RenderErr(ctx, response.ErrUnauthorized(err, orDefault(msg, "Not authenticated")))
	case errors.Is(err, service.ErrExternalService):
		response.RenderErr(ctx, response.ErrBadGateway(err, orDefault(msg, "Upstream service failed. Please try again later.")))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

func orDefault(msg, def string) string {
	if msg == "" {
		return def
	}

	return msg
}

// HandleHealthcheck godoc
// @Summary      Server status
// @Tags         health
// @Produce      json
// @Success      200      {object}   response.HealthResponse
// @Router       /health [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.HealthResponse{
		Status:  "ok",
		Message: "CEMS API is running",
	})
}
