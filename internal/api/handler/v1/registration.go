package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
)

type RegistrationService interface {
	Register(ctx context.Context, eventID uint, user domain.User) (domain.Ticket, error)
	Unregister(ctx context.Context, eventID, userID uint) error
	MyRegistrations(ctx context.Context, userID uint) ([]domain.Registration, error)
	Participants(ctx context.Context, eventID uint) ([]domain.Registration, error)
}

type RegistrationHandler struct {
	svc RegistrationService
}

func NewRegistrationHandler(svc RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// HandleRegister godoc
// @Summary      Register for a free event
// @Description  Paid events answer 400 with isPaid and price; use the payment flow for them.
// @Tags         registrations
// @Produce      json
// @Param        eventId   path      int true "Event ID"
// @Success      200      {object}   response.RegisterResponse
// @Failure      400      {object}   response.PaymentRequiredResponse
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /registrations/{eventId}/register [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	eventID, ok := paramID(ctx, "eventId")
	if !ok {
		return
	}

	ticket, err := h.svc.Register(ctx.Request.Context(), eventID, user)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRegister -> h.svc.Register", err)
		return
	}

	ctx.JSON(http.StatusOK, response.RegisterResponse{
		Message: "Registered successfully",
		QRCode:  ticket.DataURL,
		Token:   ticket.Token,
	})
}

// HandleUnregister godoc
// @Summary      Cancel a registration
// @Tags         registrations
// @Produce      json
// @Param        eventId   path      int true "Event ID"
// @Success      200      {object}   response.Message
// @Failure      404      {object}   response.Err
// @Router       /registrations/{eventId}/unregister [delete]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleUnregister(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	eventID, ok := paramID(ctx, "eventId")
	if !ok {
		return
	}

	if err := h.svc.Unregister(ctx.Request.Context(), eventID, user.ID); err != nil {
		renderServiceErr(ctx, "v1.HandleUnregister -> h.svc.Unregister", err)
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "Unregistered successfully"})
}

// HandleMyEvents godoc
// @Summary      Events the caller is registered for
// @Tags         registrations
// @Produce      json
// @Success      200      {object}   response.MyEventsResponse
// @Router       /registrations/my-events [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleMyEvents(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	regs, err := h.svc.MyRegistrations(ctx.Request.Context(), user.ID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleMyEvents -> h.svc.MyRegistrations", err)
		return
	}

	if regs == nil {
		regs = []domain.Registration{}
	}
	events := make([]domain.Event, 0, len(regs))
	for _, reg := range regs {
		if reg.Event != nil {
			events = append(events, *reg.Event)
		}
	}

	ctx.JSON(http.StatusOK, response.MyEventsResponse{
		Events:        events,
		Registrations: regs,
	})
}

// HandleParticipants godoc
// @Summary      Participants of an event
// @Tags         registrations
// @Produce      json
// @Param        eventId   path      int true "Event ID"
// @Success      200      {object}   response.ParticipantsResponse
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /registrations/{eventId}/participants [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleParticipants(ctx *gin.Context) {
	eventID, ok := paramID(ctx, "eventId")
	if !ok {
		return
	}

	regs, err := h.svc.Participants(ctx.Request.Context(), eventID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleParticipants -> h.svc.Participants", err)
		return
	}

	if regs == nil {
		regs = []domain.Registration{}
	}
	ctx.JSON(http.StatusOK, response.ParticipantsResponse{Participants: regs})
}
