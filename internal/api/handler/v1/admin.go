package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
)

type AdminService interface {
	Stats(ctx context.Context) (domain.Stats, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	PendingOrganizers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, actor domain.User, id uint) error
	ApproveOrganizer(ctx context.Context, id uint) (domain.User, error)
	RejectOrganizer(ctx context.Context, id uint) (domain.User, error)
}

type AdminHandler struct {
	svc AdminService
}

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// HandleStats godoc
// @Summary      Dashboard totals
// @Tags         admin
// @Produce      json
// @Success      200      {object}   domain.Stats
// @Failure      403      {object}   response.Err
// @Router       /admin/stats [get]
// @Security     BearerAuth
func (h *AdminHandler) HandleStats(ctx *gin.Context) {
	stats, err := h.svc.Stats(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleStats -> h.svc.Stats", err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleListUsers godoc
// @Summary      All users
// @Tags         admin
// @Produce      json
// @Success      200      {object}   response.UsersResponse
// @Router       /admin/users [get]
// @Security     BearerAuth
func (h *AdminHandler) HandleListUsers(ctx *gin.Context) {
	users, err := h.svc.ListUsers(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListUsers -> h.svc.ListUsers", err)
		return
	}

	ctx.JSON(http.StatusOK, response.UsersResponse{Users: nonNilUsers(users)})
}

// HandlePendingOrganizers godoc
// @Summary      Organizers waiting for approval
// @Tags         admin
// @Produce      json
// @Success      200      {object}   response.UsersResponse
// @Router       /admin/pending-organizers [get]
// @Security     BearerAuth
func (h *AdminHandler) HandlePendingOrganizers(ctx *gin.Context) {
	users, err := h.svc.PendingOrganizers(ctx.Request.Context())
	if err != nil {
		renderServiceErr(ctx, "v1.HandlePendingOrganizers -> h.svc.PendingOrganizers", err)
		return
	}

	ctx.JSON(http.StatusOK, response.UsersResponse{Users: nonNilUsers(users)})
}

// HandleDeleteUser godoc
// @Summary      Delete a user
// @Tags         admin
// @Produce      json
// @Param        id   path      int true "User ID"
// @Success      200      {object}   response.Message
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Router       /admin/users/{id} [delete]
// @Security     BearerAuth
func (h *AdminHandler) HandleDeleteUser(ctx *gin.Context) {
	actor, ok := getUserFromContext(ctx)
	if !ok {
		return
	}
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(ctx.Request.Context(), actor, id); err != nil {
		renderServiceErr(ctx, "v1.HandleDeleteUser -> h.svc.DeleteUser", err)
		return
	}

	ctx.JSON(http.StatusOK, response.Message{Message: "User deleted successfully"})
}

// HandleApproveOrganizer godoc
// @Summary      Approve an organizer account
// @Tags         admin
// @Produce      json
// @Param        id   path      int true "User ID"
// @Success      200      {object}   response.UserResponse
// @Failure      404      {object}   response.Err
// @Router       /admin/organizers/{id}/approve [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleApproveOrganizer(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	user, err := h.svc.ApproveOrganizer(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleApproveOrganizer -> h.svc.ApproveOrganizer", err)
		return
	}

	ctx.JSON(http.StatusOK, response.UserResponse{
		Message: "Organizer approved successfully",
		User:    user,
	})
}

// HandleRejectOrganizer godoc
// @Summary      Reject an organizer account
// @Tags         admin
// @Produce      json
// @Param        id   path      int true "User ID"
// @Success      200      {object}   response.UserResponse
// @Failure      404      {object}   response.Err
// @Router       /admin/organizers/{id}/reject [post]
// @Security     BearerAuth
func (h *AdminHandler) HandleRejectOrganizer(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}

	user, err := h.svc.RejectOrganizer(ctx.Request.Context(), id)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRejectOrganizer -> h.svc.RejectOrganizer", err)
		return
	}

	ctx.JSON(http.StatusOK, response.UserResponse{
		Message: "Organizer rejected",
		User:    user,
	})
}

func nonNilUsers(users []domain.User) []domain.User {
	if users == nil {
		return []domain.User{}
	}

	return users
}
