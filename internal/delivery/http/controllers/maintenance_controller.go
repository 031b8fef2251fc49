package controllers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	h "bookmarkly/internal/delivery/http/helpers"
	"bookmarkly/internal/domain"
)

// CleanupInvitesResponse is the data payload for POST /maintenance/invites/cleanup (200).
type CleanupInvitesResponse struct {
	CleanedCount int `json:"cleaned_count"`
}

// CleanupInvitesSuccessResponse is the success response envelope for POST /maintenance/invites/cleanup (200).
type CleanupInvitesSuccessResponse struct {
	Data  CleanupInvitesResponse `json:"data"`
	Error *h.APIError            `json:"error"`
}

// MaintenanceController exposes operational endpoints guarded by a shared secret
// instead of user auth, for schedulers and cron jobs.
type MaintenanceController struct {
	Logger  *slog.Logger
	Service domain.InviteService
	Secret  string
}

func NewMaintenanceController(logger *slog.Logger, svc domain.InviteService, secret string) *MaintenanceController {
	return &MaintenanceController{
		Logger:  logger,
		Service: svc,
		Secret:  secret,
	}
}

// CleanupInvites godoc
// @Summary Expire overdue invites
// @Description Marks all pending invites past their expiry as expired and returns the count. Guarded by a shared-secret Bearer token, not user auth.
// @Tags maintenance
// @Produce json
// @Param Authorization header string true "Bearer <cleanup secret>"
// @Success 200 {object} controllers.CleanupInvitesSuccessResponse "data contains cleaned_count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /maintenance/invites/cleanup [post]
func (c *MaintenanceController) CleanupInvites(w http.ResponseWriter, r *http.Request) {
	if !c.authorized(r) {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	count, err := c.Service.CleanupExpired(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "internal error")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CleanupInvitesResponse{CleanedCount: count})
}

func (c *MaintenanceController) authorized(r *http.Request) bool {
	if c.Secret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.Secret)) == 1
}
