// internal/handlers/auth/oauth_handler.go
package auth

import (
	"net/http"

	"invitera-service/internal/middleware"
	"invitera-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GoogleRedirect starts the Google sign-in flow
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	url, err := h.authService.GoogleAuthURL(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to build google auth url", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "google sign-in unavailable", nil)
		return
	}

	response.Success(c, http.StatusOK, "redirect to google", gin.H{"auth_url": url})
}

// GoogleCallback finishes the Google sign-in. This route fails closed:
// whatever goes wrong (bad state, exchange failure, store errors), the
// client is sent back to the login page rather than left on a broken
// intermediate state.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	clientID := middleware.ClientID(c)

	resp, err := h.authService.HandleGoogleCallback(
		c.Request.Context(), state, code, clientID,
		c.ClientIP(), c.GetHeader("User-Agent"),
	)
	if err != nil {
		h.logger.Warn("google callback failed", zap.Error(err))
		response.Redirect(c, http.StatusUnauthorized, "/auth/login", "sign-in failed, please try again")
		return
	}

	h.logger.Info("google sign-in complete",
		zap.Int64("identity_id", resp.User.IdentityID),
		zap.Bool("needs_profile", resp.NeedsProfile),
	)

	response.Success(c, http.StatusOK, "sign-in successful", resp)
}
