package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/askaruly/shop-auth/internal/domain"
	"github.com/askaruly/shop-auth/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestCode(ctx context.Context, phone string) error
	ConfirmCode(ctx context.Context, phone, code string) (string, error)
	Profile(ctx context.Context, phone string) (*domain.User, error)
	UpdateProfile(ctx context.Context, phone string, update domain.ProfileUpdate) (*domain.User, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type entryRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
}

type confirmRequest struct {
	PhoneNumber      string `json:"phone_number"      binding:"required,e164"`
	VerificationCode string `json:"verification_code" binding:"required"`
}

type updateProfileRequest struct {
	Email *string `json:"email" binding:"omitempty,email"`
	Name  *string `json:"name"  binding:"omitempty,max=255"`
}

type authResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Token   *string `json:"token"`
}

type profileResponse struct {
	PhoneNumber string  `json:"phone_number"`
	Email       *string `json:"email"`
	Name        *string `json:"name"`
	Active      bool    `json:"active"`
}

// POST /auth/entry
// The verification code travels only over SMS; the response never echoes it.
func (h *AuthHandler) Entry(c *gin.Context) {
	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error(), "token": nil})
		return
	}

	if err := h.authUsecase.RequestCode(c.Request.Context(), req.PhoneNumber); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "request code", "error", err)
		c.JSON(http.StatusInternalServerError, authResponse{Status: "error", Message: errInternalServer})
		return
	}

	c.JSON(http.StatusOK, authResponse{Status: "success", Message: msgCodeSent})
}

// POST /auth/confirm
func (h *AuthHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error(), "token": nil})
		return
	}

	signed, err := h.authUsecase.ConfirmCode(c.Request.Context(), req.PhoneNumber, req.VerificationCode)
	if err != nil {
		status, message := confirmFailure(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(c.Request.Context(), "confirm code", "error", err)
		}
		c.JSON(status, authResponse{Status: "error", Message: message})
		return
	}

	c.JSON(http.StatusOK, authResponse{Status: "success", Message: msgAuthenticated, Token: &signed})
}

// confirmFailure maps a validation failure onto a stable, user-safe message.
// The expected code value never leaks through this boundary.
func confirmFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusBadRequest, errNotRegistered
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusBadRequest, errAccountInactive
	case errors.Is(err, domain.ErrCodeNotFound):
		return http.StatusBadRequest, errCodeNotFound
	case errors.Is(err, domain.ErrCodeOwnerMismatch):
		return http.StatusBadRequest, errCodeWrongOwner
	case errors.Is(err, domain.ErrCodeExpired):
		return http.StatusBadRequest, errCodeExpired
	default:
		return http.StatusInternalServerError, errInternalServer
	}
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	phone := c.GetString(middleware.PhoneKey)

	user, err := h.authUsecase.Profile(c.Request.Context(), phone)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": errSomethingWrong})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "load profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toProfile(user))
}

// PUT /auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	phone := c.GetString(middleware.PhoneKey)
	user, err := h.authUsecase.UpdateProfile(c.Request.Context(), phone, domain.ProfileUpdate{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"message": errSomethingWrong})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "update profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toProfile(user))
}

func toProfile(u *domain.User) profileResponse {
	return profileResponse{
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Name:        u.Name,
		Active:      u.Active,
	}
}
