package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/request"
	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
)

type CheckInService interface {
	CheckIn(ctx context.Context, eventID, userID uint) (domain.Registration, error)
	CheckInToken(ctx context.Context, token string, eventID, userID uint) (domain.Registration, error)
}

type QRHandler struct {
	svc          CheckInService
	requireToken bool
}

func NewQRHandler(svc CheckInService, requireToken bool) *QRHandler {
	return &QRHandler{
		svc:          svc,
		requireToken: requireToken,
	}
}

// HandleVerify godoc
// @Summary      Check a participant in
// @Description  Accepts the signed token from the ticket. Bare ids are accepted only when tokens are optional.
// @Tags         qr
// @Accept       json
// @Produce      json
// @Param        request   body      request.VerifyQRRequest true "request body"
// @Success      200      {object}   response.CheckInResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /qr/verify [post]
// @Security     BearerAuth
func (h *QRHandler) HandleVerify(ctx *gin.Context) {
	var req request.VerifyQRRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(h.requireToken); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var (
		reg domain.Registration
		err error
	)
	if req.Token != "" {
		reg, err = h.svc.CheckInToken(ctx.Request.Context(), req.Token, req.EventID, req.UserID)
	} else {
		reg, err = h.svc.CheckIn(ctx.Request.Context(), req.EventID, req.UserID)
	}
	if err != nil {
		renderServiceErr(ctx, "v1.HandleVerify", err)
		return
	}

	ctx.JSON(http.StatusOK, response.CheckInResponse{
		Message:      "Participant checked in successfully",
		Registration: reg,
	})
}
