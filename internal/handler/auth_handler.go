package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/repository"
	"github.com/liqtags/relaychat/internal/service"
	"github.com/liqtags/relaychat/pkg/jwt"
	"github.com/liqtags/relaychat/pkg/middleware"
	"github.com/liqtags/relaychat/pkg/response"
)

// AuthHandler exposes registration, login and token endpoints.
type AuthHandler struct {
	auth service.AuthService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			response.Conflict(c, "email already registered")
		case errors.Is(err, repository.ErrUsernameExists):
			response.Conflict(c, "username already taken")
		default:
			response.InternalError(c, "failed to register")
		}
		return
	}

	response.Created(c, resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid credentials")
			return
		}
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, resp)
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrExpiredToken):
			response.Unauthorized(c, "refresh token expired")
		case errors.Is(err, jwt.ErrRevokedToken), errors.Is(err, jwt.ErrInvalidToken):
			response.Unauthorized(c, "invalid refresh token")
		default:
			response.InternalError(c, "failed to refresh tokens")
		}
		return
	}

	response.Success(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_at":    pair.AccessExpiresAt,
	})
}

// Logout handles POST /api/auth/logout. Requires authentication.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if err := h.auth.Logout(c.Request.Context(), userID); err != nil {
		response.InternalError(c, "failed to logout")
		return
	}
	response.NoContent(c)
}

// Me handles GET /api/auth/me. Requires authentication.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, "failed to load user")
		return
	}
	response.Success(c, user)
}
