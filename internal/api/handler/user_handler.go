package handler

import (
	"net/http"

	"voice_motto/internal/api/middleware"
	"voice_motto/internal/app/service"
	"voice_motto/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	profileService *service.ProfileService
}

func NewUserHandler(ps *service.ProfileService) *UserHandler {
	return &UserHandler{profileService: ps}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.Authenticator).Get("/user", h.currentUser)
}

func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}
