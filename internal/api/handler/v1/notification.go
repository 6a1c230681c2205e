package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
)

type NotificationService interface {
	List(ctx context.Context, userID uint) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, id, userID uint) error
}

// LiveFeed streams notifications to an upgraded connection.
type LiveFeed interface {
	Serve(conn *websocket.Conn, userID uint)
}

type NotificationHandler struct {
	svc      NotificationService
	feed     LiveFeed
	upgrader websocket.Upgrader
}

// NewNotificationHandler accepts WebSocket upgrades from allowedOrigins only;
// an empty list allows any origin.
func NewNotificationHandler(svc NotificationService, feed LiveFeed, allowedOrigins []string) *NotificationHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &NotificationHandler{
		svc:  svc,
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleList godoc
// @Summary      Latest notifications
// @Tags         notifications
// @Produce      json
// @Success      200      {object}   response.NotificationsResponse
// @Router       /notifications [get]
// @Security     BearerAuth
func (h *NotificationHandler) HandleList(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	notes, err := h.svc.List(ctx.Request.Context(), user.ID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleList -> h.svc.List", err)
		return
	}

	if notes == nil {
		notes = []domain.Notification{}
	}
	ctx.JSON(http.StatusOK, response.NotificationsResponse{Notifications: notes})
}

// HandleMarkRead godoc
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Param        id   path      int true "Notification ID"
// @Success      200      {object}   response.Message
// @Failure      404      {object}   response.Err
// @Router       /notifications/{id}/read [patch]
// @Security     BearerAuth
func (h *NotificationHandler) HandleMarkRead(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(ctx.Request.Context(), id, user.ID); err != nil {
		renderServiceErr(ctx, "v1.HandleMarkRead -> h.svc.MarkRead", err)
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "Marked as read"})
}

// HandleMarkAllRead godoc
// @Summary      Mark every notification as read
// @Tags         notifications
// @Produce      json
// @Success      200      {object}   response.Message
// @Router       /notifications/read-all [patch]
// @Security     BearerAuth
func (h *NotificationHandler) HandleMarkAllRead(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	if err := h.svc.MarkAllRead(ctx.Request.Context(), user.ID); err != nil {
		renderServiceErr(ctx, "v1.HandleMarkAllRead -> h.svc.MarkAllRead", err)
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "All notifications marked as read"})
}

// HandleDelete godoc
// @Summary      Delete a notification
// @Tags         notifications
// @Produce      json
// @Param        id   path      int true "Notification ID"
// @Success      200      {object}   response.Message
// @Failure      404      {object}   response.Err
// @Router       /notifications/{id} [delete]
// @Security     BearerAuth
func (h *NotificationHandler) HandleDelete(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(ctx.Request.Context(), id, user.ID); err != nil {
		renderServiceErr(ctx, "v1.HandleDelete -> h.svc.Delete", err)
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "Notification deleted"})
}

// HandleWebSocket godoc
// @Summary      Live notification stream
// @Description  Pass the JWT as the token query parameter when headers cannot be set.
// @Tags         notifications
// @Param        token   query     string false "JWT"
// @Success      101     {string}  string "Switching Protocols"
// @Failure      401     {object}  response.Err
// @Router       /notifications/ws [get]
// @Security     BearerAuth
func (h *NotificationHandler) HandleWebSocket(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		zap.L().Debug("websocket upgrade failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}

	h.feed.Serve(conn, user.ID)
}
