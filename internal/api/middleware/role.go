package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
)

var (
	errNotAuthenticated = errors.New("no user on context")
	errRoleDenied       = errors.New("role not allowed")
	errNotApproved      = errors.New("organizer not approved")
)

// RequireRole must run after VerifyJWT.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errNotAuthenticated, "Not authenticated"))
			return
		}

		for _, role := range roles {
			if user.Role == role {
				ctx.Next()
				return
			}
		}

		response.RenderErr(ctx, response.ErrForbidden(errRoleDenied, "Access denied"))
	}
}

// RequireApproved blocks organizers whose account is not approved yet.
// Other roles pass.
func RequireApproved() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := CurrentUser(ctx)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errNotAuthenticated, "Not authenticated"))
			return
		}

		if user.Role == domain.RoleOrganizer && !user.IsApproved() {
			response.RenderErr(ctx, response.ErrForbidden(errNotApproved,
				"Your organizer account is pending approval. Please wait for admin approval.").
				With("status", user.Status))
			return
		}

		ctx.Next()
	}
}
