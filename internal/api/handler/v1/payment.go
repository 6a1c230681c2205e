package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/request"
	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/payment"
	"github.com/thenamerahulkr/cems/internal/service"
)

var errMissingPaymentID = errors.New("paymentId: cannot be blank")

type PaymentService interface {
	CreateOrder(ctx context.Context, eventID uint, user domain.User) (domain.PaymentOrder, error)
	VerifyPayment(ctx context.Context, user domain.User, conf domain.PaymentConfirmation) (domain.Registration, error)
	RefundPayment(ctx context.Context, actor domain.User, registrationID uint) (payment.Refund, error)
	PaymentDetails(ctx context.Context, actor domain.User, paymentID string) (map[string]interface{}, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// HandleCreateOrder godoc
// @Summary      Start checkout for a paid event
// @Tags         payment
// @Accept       json
// @Produce      json
// @Param        request   body      request.CreateOrderRequest true "request body"
// @Success      200      {object}   domain.PaymentOrder
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      502      {object}   response.Err
// @Router       /payment/create-order [post]
// @Security     BearerAuth
func (h *PaymentHandler) HandleCreateOrder(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	var req request.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	order, err := h.svc.CreateOrder(ctx.Request.Context(), req.EventID, user)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateOrder -> h.svc.CreateOrder", err)
		return
	}

	ctx.JSON(http.StatusOK, order)
}

// HandleVerifyPayment godoc
// @Summary      Confirm a Razorpay checkout
// @Tags         payment
// @Accept       json
// @Produce      json
// @Param        request   body      request.VerifyPaymentRequest true "request body"
// @Success      200      {object}   response.VerifyPaymentResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /payment/verify [post]
// @Security     BearerAuth
func (h *PaymentHandler) HandleVerifyPayment(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	var req request.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reg, err := h.svc.VerifyPayment(ctx.Request.Context(), user, req.Confirmation())
	if err != nil {
		if errors.Is(err, service.ErrPaymentVerification) {
			response.RenderErr(ctx, response.ErrInvalidState(err, service.Message(err)).With("success", false))
			return
		}
		renderServiceErr(ctx, "v1.HandleVerifyPayment -> h.svc.VerifyPayment", err)
		return
	}

	ctx.JSON(http.StatusOK, response.VerifyPaymentResponse{
		Success:      true,
		Message:      "Payment verified successfully",
		Registration: reg,
	})
}

// HandlePaymentDetails godoc
// @Summary      Fetch a payment from the gateway
// @Tags         payment
// @Produce      json
// @Param        paymentId   path      string true "Razorpay payment ID"
// @Success      200      {object}   response.PaymentDetailsResponse
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      502      {object}   response.Err
// @Router       /payment/payment/{paymentId} [get]
// @Security     BearerAuth
func (h *PaymentHandler) HandlePaymentDetails(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	paymentID := strings.TrimSpace(ctx.Param("paymentId"))
	if paymentID == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errMissingPaymentID))
		return
	}

	details, err := h.svc.PaymentDetails(ctx.Request.Context(), user, paymentID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandlePaymentDetails -> h.svc.PaymentDetails", err)
		return
	}

	ctx.JSON(http.StatusOK, response.PaymentDetailsResponse{Payment: details})
}

// HandleRefund godoc
// @Summary      Refund a completed payment
// @Description  Releases the seat of the registration.
// @Tags         payment
// @Accept       json
// @Produce      json
// @Param        request   body      request.RefundRequest true "request body"
// @Success      200      {object}   response.RefundResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      502      {object}   response.Err
// @Router       /payment/refund [post]
// @Security     BearerAuth
func (h *PaymentHandler) HandleRefund(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	var req request.RefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	refund, err := h.svc.RefundPayment(ctx.Request.Context(), user, req.RegistrationID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRefund -> h.svc.RefundPayment", err)
		return
	}

	ctx.JSON(http.StatusOK, response.RefundResponse{
		Success: true,
		Message: "Refund processed successfully",
		Refund:  refund,
	})
}
