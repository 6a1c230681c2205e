package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/request"
	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
)

const (
	bannerFormField = "banner"
	maxBannerSize   = 5 << 20
)

var errBannerTooLarge = errors.New("banner must be 5MB or smaller")

type EventService interface {
	Create(ctx context.Context, actor domain.User, event domain.Event) (domain.Event, error)
	List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
	Get(ctx context.Context, id uint) (domain.Event, error)
	Update(ctx context.Context, actor domain.User, id uint, update domain.EventUpdate) (domain.Event, error)
	Delete(ctx context.Context, actor domain.User, id uint) error
	UploadBanner(ctx context.Context, actor domain.User, id uint, file io.Reader) (domain.Event, error)
	Approve(ctx context.Context, id uint) (domain.Event, error)
	Reject(ctx context.Context, id uint) (domain.Event, error)
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// HandleListEvents godoc
// @Summary      List events
// @Tags         events
// @Produce      json
// @Param        category  query     string false "Technical, Cultural or Sports"
// @Param        status    query     string false "pending, approved or rejected"
// @Param        search    query     string false "matches title and description"
// @Success      200      {object}   response.EventsResponse
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events [get]
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	var q request.EventQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	events, err := h.svc.List(ctx.Request.Context(), q.Filter())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListEvents -> h.svc.List", err)
		return
	}

	ctx.JSON(http.StatusOK, response.EventsResponse{Events: events})
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        id   path      int true "Event ID"
// @Success      200      {object}   domain.Event
// @Failure      404      {object}   response.Err
// @Router       /events/{id} [get]
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	event, err := h.svc.Get(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetEvent -> h.svc.Get", err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  New events start pending until an admin approves them.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        request   body      request.CreateEventRequest true "request body"
// @Success      201      {object}   response.EventResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Router       /events [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.Create(ctx.Request.Context(), user, req.Event())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateEvent -> h.svc.Create", err)
		return
	}

	ctx.JSON(http.StatusCreated, response.EventResponse{
		Message: "Event created successfully",
		Event:   event,
	})
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        id        path      int true "Event ID"
// @Param        request   body      request.UpdateEventRequest true "request body"
// @Success      200      {object}   response.EventResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /events/{id} [put]
// @Security     BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.Update(ctx.Request.Context(), user, id, req.Update())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUpdateEvent -> h.svc.Update", err)
		return
	}

	ctx.JSON(http.StatusOK, response.EventResponse{
		Message: "Event updated successfully",
		Event:   event,
	})
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Tags         events
// @Produce      json
// @Param        id   path      int true "Event ID"
// @Success      200      {object}   response.Message
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /events/{id} [delete]
// @Security     BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), user, id); err != nil {
		renderServiceErr(ctx, "v1.HandleDeleteEvent -> h.svc.Delete", err)
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "Event deleted successfully"})
}

// HandleUploadBanner godoc
// @Summary      Upload an event banner
// @Tags         events
// @Accept       multipart/form-data
// @Produce      json
// @Param        id       path      int  true "Event ID"
// @Param        banner   formData  file true "banner image"
// @Success      200      {object}   response.EventResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      503      {object}   response.Err
// @Router       /events/{id}/banner [post]
// @Security     BearerAuth
func (h *EventHandler) HandleUploadBanner(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	header, err := ctx.FormFile(bannerFormField)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("%s: %w", bannerFormField, err)))
		return
	}
	if header.Size > maxBannerSize {
		response.RenderErr(ctx, response.ErrBadRequest(errBannerTooLarge))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleUploadBanner -> header.Open -> %w", err)))
		return
	}
	defer file.Close()

	event, err := h.svc.UploadBanner(ctx.Request.Context(), user, id, file)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleUploadBanner -> h.svc.UploadBanner", err)
		return
	}

	ctx.JSON(http.StatusOK, response.EventResponse{
		Message: "Banner uploaded successfully",
		Event:   event,
	})
}

// HandleApproveEvent godoc
// @Summary      Approve an event
// @Tags         events,admin
// @Produce      json
// @Param        id   path      int true "Event ID"
// @Success      200      {object}   response.EventResponse
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /events/{id}/approve [post]
// @Security     BearerAuth
func (h *EventHandler) HandleApproveEvent(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	event, err := h.svc.Approve(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleApproveEvent -> h.svc.Approve", err)
		return
	}

	ctx.JSON(http.StatusOK, response.EventResponse{
		Message: "Event approved successfully",
		Event:   event,
	})
}

// HandleRejectEvent godoc
// @Summary      Reject an event
// @Tags         events,admin
// @Produce      json
// @Param        id   path      int true "Event ID"
// @Success      200      {object}   response.EventResponse
// @Failure      403      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /events/{id}/reject [post]
// @Security     BearerAuth
func (h *EventHandler) HandleRejectEvent(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	event, err := h.svc.Reject(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRejectEvent -> h.svc.Reject", err)
		return
	}

	ctx.JSON(http.StatusOK, response.EventResponse{
		Message: "Event rejected",
		Event:   event,
	})
}
