// internal/handlers/profile/profile_handler.go
package profile

import (
	"net/http"

	"invitera-service/internal/domain/user"
	"invitera-service/internal/middleware"
	xerrors "invitera-service/internal/pkg/errors"
	"invitera-service/internal/pkg/response"
	profileUsecase "invitera-service/internal/service/profile"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profileService *profileUsecase.ProfileService
	logger         *zap.Logger
}

func NewProfileHandler(profileService *profileUsecase.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// Prefill returns the completion-form defaults. A user whose profile row
// already exists has nothing to complete and is sent home.
func (h *ProfileHandler) Prefill(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	prefill, hasProfile, err := h.profileService.Prefill(c.Request.Context(), identityID)
	if err != nil {
		h.logger.Error("prefill failed", zap.Int64("identity_id", identityID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "could not load profile form", nil)
		return
	}
	if hasProfile {
		response.Redirect(c, http.StatusOK, "/", "profile already complete")
		return
	}

	response.Success(c, http.StatusOK, "profile form defaults", prefill)
}

// Complete writes the profile row and finishes onboarding
func (h *ProfileHandler) Complete(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	var req user.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	profile, err := h.profileService.Complete(c.Request.Context(), identityID, &req)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidInput) {
			response.ValidationError(c, err.Error(), nil)
			return
		}
		h.logger.Error("profile completion failed", zap.Int64("identity_id", identityID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "could not save profile", nil)
		return
	}

	h.logger.Info("profile completed", zap.Int64("identity_id", identityID))

	response.Success(c, http.StatusOK, "profile saved", gin.H{
		"profile":     profile,
		"redirect_to": "/",
	})
}

// Me returns the caller's profile
func (h *ProfileHandler) Me(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	profile, err := h.profileService.Me(c.Request.Context(), identityID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.Redirect(c, http.StatusOK, "/auth/complete-profile", "profile not complete")
			return
		}
		response.Error(c, http.StatusInternalServerError, "could not load profile", nil)
		return
	}

	response.Success(c, http.StatusOK, "profile", profile)
}

// Update modifies the caller's profile
func (h *ProfileHandler) Update(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	profile, err := h.profileService.Update(c.Request.Context(), identityID, &req)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrInvalidInput):
			response.ValidationError(c, err.Error(), nil)
		case xerrors.Is(err, xerrors.ErrNotFound):
			response.Redirect(c, http.StatusOK, "/auth/complete-profile", "profile not complete")
		default:
			h.logger.Error("profile update failed", zap.Int64("identity_id", identityID), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "could not update profile", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, "profile updated", profile)
}
