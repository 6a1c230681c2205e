package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/pkg/jwthelper"
	"github.com/thenamerahulkr/cems/internal/service"
)

const (
	userKey         = "cems.user"
	tokenQueryParam = "token"
)

var errMissingToken = errors.New("missing bearer token")

type UserLoader interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type Authenticator struct {
	key   []byte
	users UserLoader
}

func NewAuthenticator(key string, users UserLoader) *Authenticator {
	return &Authenticator{
		key:   []byte(key),
		users: users,
	}
}

// VerifyJWT loads the caller on every request, so a role or status change
// applies to tokens that are already issued.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := bearerToken(ctx)
		if tokenString == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken, "No token, authorization denied"))
			return
		}

		claims, err := jwthelper.ParseToken(a.key, tokenString)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err, "Token is not valid"))
			return
		}

		user, err := a.users.GetUser(ctx.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.RenderErr(ctx, response.ErrUnauthorized(err, "User not found"))
				return
			}
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}

		ctx.Set(userKey, user)
		ctx.Next()
	}
}

// CurrentUser returns the user VerifyJWT stored on the context.
func CurrentUser(ctx *gin.Context) (domain.User, bool) {
	v, ok := ctx.Get(userKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := v.(domain.User)

	return user, ok
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for WebSocket clients that cannot set headers.
func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	return ctx.Query(tokenQueryParam)
}
