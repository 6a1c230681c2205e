package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thenamerahulkr/cems/internal/api/handler/v1/request"
	"github.com/thenamerahulkr/cems/internal/api/handler/v1/response"
	"github.com/thenamerahulkr/cems/internal/config"
	"github.com/thenamerahulkr/cems/internal/domain"
	"github.com/thenamerahulkr/cems/internal/pkg/jwthelper"
	"github.com/thenamerahulkr/cems/internal/service"
)

type AuthService interface {
	Signup(ctx context.Context, user domain.User) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleSignup godoc
// @Summary      Register a student or organizer account
// @Description  Students receive a token right away. Organizers wait for admin approval.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.SignupRequest true "request body"
// @Success      201      {object}   response.SignupResponse
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/register [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Signup(ctx.Request.Context(), req.User())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleSignup -> h.svc.Signup", err)
		return
	}

	if user.Role == domain.RoleOrganizer {
		ctx.JSON(http.StatusCreated, response.SignupResponse{
			Message:          "Registration successful! Your account is pending admin approval.",
			User:             user,
			RequiresApproval: true,
		})
		return
	}

	token, err := h.token(ctx, user)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleSignup -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, response.SignupResponse{
		Message: "Registered successfully",
		User:    user,
		Token:   token,
	})
}

// HandleLogin godoc
// @Summary      Login a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWrongCredentials):
			response.RenderErr(ctx, response.ErrWrongCredentials(err))
		case errors.Is(err, service.ErrOrganizerPending):
			response.RenderErr(ctx, response.ErrForbidden(err,
				"Your organizer account is pending admin approval. Please wait for approval before logging in.").
				With("status", user.Status))
		case errors.Is(err, service.ErrOrganizerRejected):
			response.RenderErr(ctx, response.ErrForbidden(err,
				"Your organizer account has been rejected. Please contact the administrator for more information.").
				With("status", user.Status))
		default:
			renderServiceErr(ctx, "v1.HandleLogin -> h.svc.Login", err)
		}
		return
	}

	token, err := h.token(ctx, user)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleLogin -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

// HandleMe godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200      {object}   domain.User
// @Failure      401      {object}   response.Err
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) HandleMe(ctx *gin.Context) {
	user, ok := getUserFromContext(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, user)
}

func (h *AuthHandler) token(ctx *gin.Context, user domain.User) (string, error) {
	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), user.ID, ctx.Request.UserAgent(), h.conf.JWTTTL)
	if err != nil {
		return "", fmt.Errorf("jwthelper.GenerateToken -> %w", err)
	}

	return token, nil
}
