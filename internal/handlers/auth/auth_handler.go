// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"
	"strconv"
	"time"

	"invitera-service/internal/domain/auth"
	"invitera-service/internal/middleware"
	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/pkg/response"
	authUsecase "invitera-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Signup ==========

// Signup handles user registration (public endpoint). Validation
// failures come back itemized with a 400; nothing is written until the
// whole form passes.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req auth.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	resp, failures, err := h.authService.Signup(c.Request.Context(), &req)
	if len(failures) > 0 {
		response.Error(c, http.StatusBadRequest, "validation failed", nil,
			auth.ValidationFailure{Errors: failures})
		return
	}
	if err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			response.Error(c, http.StatusConflict, "an account with this email already exists", nil)
			return
		}
		h.logger.Error("signup failed", zap.String("email", req.Email), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "signup failed", nil)
		return
	}

	response.Success(c, http.StatusCreated, "account created, verification email sent", resp)
}

// ========== Login ==========

// Login handles email/password login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.ClientID = middleware.ClientID(c)
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrRateLimited) {
			response.Error(c, http.StatusTooManyRequests, "too many login attempts, try again later", nil)
			return
		}
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.Error(c, http.StatusUnauthorized, "invalid email or password", nil)
		return
	}

	h.logger.Info("user logged in",
		zap.Int64("identity_id", loginResp.User.IdentityID),
		zap.String("redirect_to", loginResp.RedirectTo),
	)

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Email verification ==========

// VerifyEmail consumes the token from the verification link
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusBadRequest, "missing verification token", nil)
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), token); err != nil {
		if xerrors.Is(err, xerrors.ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "verification link is invalid or expired", nil)
			return
		}
		h.logger.Error("email verification failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "verification failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "email verified", gin.H{"redirect_to": "/auth/login"})
}

// VerificationStatus is polled by the waiting page after signup
func (h *AuthHandler) VerificationStatus(c *gin.Context) {
	identityID, err := strconv.ParseInt(c.Query("identity_id"), 10, 64)
	if err != nil || identityID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid identity id", nil)
		return
	}

	verified, err := h.authService.VerificationStatus(c.Request.Context(), identityID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "account not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "status check failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "status", gin.H{"email_verified": verified})
}

// ResendVerification re-sends the verification email
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req auth.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		if xerrors.Is(err, xerrors.ErrRateLimited) {
			response.Error(c, http.StatusTooManyRequests, "too many resend requests, try again later", nil)
			return
		}
		h.logger.Error("resend verification failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "could not resend verification email", nil)
		return
	}

	response.Success(c, http.StatusOK, "if the address is registered, a verification email has been sent", nil)
}

// ========== Logout ==========

// Logout ends the current session
func (h *AuthHandler) Logout(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)
	jti := middleware.MustGetJTI(c)

	expiry, ok := middleware.GetTokenExpiry(c)
	if !ok {
		expiry = time.Now().Add(24 * time.Hour)
	}

	if err := h.authService.Logout(c.Request.Context(), identityID, jti, expiry); err != nil {
		h.logger.Error("logout failed", zap.Int64("identity_id", identityID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "logged out", gin.H{"redirect_to": "/auth/login"})
}

// LogoutAll ends every session the user holds
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	if err := h.authService.LogoutAll(c.Request.Context(), identityID); err != nil {
		h.logger.Error("logout all failed", zap.Int64("identity_id", identityID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	response.Success(c, http.StatusOK, "all sessions ended", gin.H{"redirect_to": "/auth/login"})
}
