package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bookmarkly/internal/delivery/http/helpers"
	"bookmarkly/internal/delivery/http/middleware"
	"bookmarkly/internal/domain"
)

// CreateInviteRequest is the request body for POST /collections/{collectionID}/invites.
type CreateInviteRequest struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Validate implements Validator.
func (c CreateInviteRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(c.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if _, ok := domain.ParseCollaboratorRole(c.Role); !ok {
		errs = append(errs, "role must be \"view\", \"edit\", or \"admin\"")
	}
	return errs
}

// InviteSuccessResponse is the success response envelope for endpoints returning a single invite.
type InviteSuccessResponse struct {
	Data  *domain.CollectionInvite `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ListInvitesResponse is the data payload for GET /collections/{collectionID}/invites (200).
type ListInvitesResponse struct {
	Items      []*domain.CollectionInvite `json:"items"`
	Pagination helpers.PaginationMeta     `json:"pagination"`
}

// ListInvitesSuccessResponse is the success response envelope for GET /collections/{collectionID}/invites (200).
type ListInvitesSuccessResponse struct {
	Data  ListInvitesResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// InviteActionRequest is the request body for POST /invites/token/{token}.
type InviteActionRequest struct {
	Action string `json:"action"`
}

// Validate implements Validator.
func (a InviteActionRequest) Validate() []string {
	switch strings.ToLower(strings.TrimSpace(a.Action)) {
	case "accept", "decline":
		return nil
	default:
		return []string{"action must be \"accept\" or \"decline\""}
	}
}

// InviteActionResponse is the data payload for POST /invites/token/{token} (200).
type InviteActionResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CollectionID string `json:"collection_id,omitempty"`
}

// InviteActionSuccessResponse is the success response envelope for POST /invites/token/{token} (200).
type InviteActionSuccessResponse struct {
	Data  InviteActionResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// CancelInviteResponse is the data payload for POST /invites/{inviteID}/cancel (200).
type CancelInviteResponse struct {
	Status string `json:"status"`
}

// CancelInviteSuccessResponse is the success response envelope for POST /invites/{inviteID}/cancel (200).
type CancelInviteSuccessResponse struct {
	Data  CancelInviteResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ResendInviteResponse is the data payload for POST /invites/{inviteID}/resend (200).
type ResendInviteResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ResendInviteSuccessResponse is the success response envelope for POST /invites/{inviteID}/resend (200).
type ResendInviteSuccessResponse struct {
	Data  ResendInviteResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type InviteController struct {
	Logger  *slog.Logger
	Service domain.InviteService
}

func NewInviteController(logger *slog.Logger, svc domain.InviteService) *InviteController {
	return &InviteController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateInvite godoc
// @Summary Invite a collaborator
// @Description Creates a pending invite for the given email with the requested role. Requires admin access on the collection. At most one pending invite per email per collection.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param collectionID path string true "Collection ID"
// @Param body body CreateInviteRequest true "Invite data"
// @Success 200 {object} controllers.InviteSuccessResponse "data contains the created invite"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (pending invite or already a collaborator)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /collections/{collectionID}/invites [post]
func (c *InviteController) CreateInvite(w http.ResponseWriter, r *http.Request) {
	collectionID := r.PathValue("collectionID")
	if collectionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing collectionID")
		return
	}
	var req CreateInviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	role, _ := domain.ParseCollaboratorRole(req.Role)
	invite, err := c.Service.CreateInvite(r.Context(), collectionID, userID, req.Email, role, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "collection not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		if errors.Is(err, domain.ErrAlreadyCollaborator) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "user is already a collaborator")
			return
		}
		if errors.Is(err, domain.ErrDuplicateInvite) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "a pending invite already exists for this email")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invite)
}

// ListInvites godoc
// @Summary List invites for a collection
// @Description Returns a paginated list of invites for the collection, newest first. Requires admin access.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param collectionID path string true "Collection ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListInvitesSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /collections/{collectionID}/invites [get]
func (c *InviteController) ListInvites(w http.ResponseWriter, r *http.Request) {
	collectionID := r.PathValue("collectionID")
	if collectionID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing collectionID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	list, total, err := c.Service.ListInvites(r.Context(), collectionID, userID, params)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "collection not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	if list == nil {
		list = []*domain.CollectionInvite{}
	}
	meta := helpers.NewPaginationMeta(params.Page, params.PageSize, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitesResponse{Items: list, Pagination: meta})
}

// GetInviteByID godoc
// @Summary Get an invite by ID
// @Description Returns the invite with the given ID regardless of status. The token is never included.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param inviteID path string true "Invite ID"
// @Success 200 {object} controllers.InviteSuccessResponse "data contains the invite"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{inviteID} [get]
func (c *InviteController) GetInviteByID(w http.ResponseWriter, r *http.Request) {
	inviteID := r.PathValue("inviteID")
	if inviteID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing inviteID")
		return
	}
	invite, err := c.Service.GetInviteByID(r.Context(), inviteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invite)
}

// GetInviteByToken godoc
// @Summary Get an invite by token
// @Description Returns the pending invite carrying the given token. A pending invite past its expiry is marked expired and reported as gone. Accepted and declined invites are not found by token.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param token path string true "Invite token"
// @Success 200 {object} controllers.InviteSuccessResponse "data contains the invite"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 410 {object} helpers.APIResponse "error.code: gone (invite expired)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/token/{token} [get]
func (c *InviteController) GetInviteByToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	invite, err := c.Service.GetInviteByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrInviteExpired) {
			helpers.WriteJSONError(w, http.StatusGone, helpers.ErrCodeGone, "invite has expired")
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invite)
}

// RespondToInvite godoc
// @Summary Accept or decline an invite
// @Description Accepts or declines the pending invite carrying the given token. Only the invited user may respond; the invite email must match the authenticated user's email. Accepting adds the user as a collaborator with the invited role.
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param token path string true "Invite token"
// @Param body body InviteActionRequest true "accept or decline"
// @Success 200 {object} controllers.InviteActionSuccessResponse "data contains success, message, and collection_id on accept"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invalid action or invite no longer pending)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the invited user)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 410 {object} helpers.APIResponse "error.code: gone (invite expired)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/token/{token} [post]
func (c *InviteController) RespondToInvite(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	var req InviteActionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	accept := strings.EqualFold(strings.TrimSpace(req.Action), "accept")
	var invite *domain.CollectionInvite
	var err error
	if accept {
		invite, err = c.Service.AcceptInvite(r.Context(), token, userID)
	} else {
		invite, err = c.Service.DeclineInvite(r.Context(), token, userID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInviteExpired) {
			helpers.WriteJSONError(w, http.StatusGone, helpers.ErrCodeGone, "invite has expired")
			return
		}
		if errors.Is(err, domain.ErrInviteNotPending) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invite is no longer pending")
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}

	resp := InviteActionResponse{Success: true}
	if accept {
		resp.Message = "invite accepted"
		resp.CollectionID = invite.CollectionID
	} else {
		resp.Message = "invite declined"
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}

// CancelInvite godoc
// @Summary Cancel a pending invite
// @Description Cancels (deletes) the pending invite. Only the inviter may cancel; non-pending invites cannot be cancelled.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param inviteID path string true "Invite ID"
// @Success 200 {object} controllers.CancelInviteSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invite no longer pending)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the inviter)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{inviteID}/cancel [post]
func (c *InviteController) CancelInvite(w http.ResponseWriter, r *http.Request) {
	inviteID := r.PathValue("inviteID")
	if inviteID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing inviteID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.CancelInvite(r.Context(), inviteID, userID); err != nil {
		if errors.Is(err, domain.ErrInviteNotPending) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invite is no longer pending")
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CancelInviteResponse{Status: "cancelled"})
}

// ResendInvite godoc
// @Summary Resend an invite
// @Description Issues a fresh token and expiry for a pending or expired invite and re-sends the invite email. Requires the inviter or admin access on the collection.
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param inviteID path string true "Invite ID"
// @Success 200 {object} controllers.ResendInviteSuccessResponse "data contains the new token and expiry"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (invite already resolved)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invites/{inviteID}/resend [post]
func (c *InviteController) ResendInvite(w http.ResponseWriter, r *http.Request) {
	inviteID := r.PathValue("inviteID")
	if inviteID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing inviteID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	invite, err := c.Service.ResendInvite(r.Context(), inviteID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrInviteNotPending) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invite is already resolved")
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invite not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ResendInviteResponse{Token: invite.Token, ExpiresAt: invite.ExpiresAt})
}
