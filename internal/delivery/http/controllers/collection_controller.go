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

// CreateCollectionRequest is the request body for POST /collections.
type CreateCollectionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsPublic    bool     `json:"is_public"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// Validate implements Validator.
func (c CreateCollectionRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// CreateCollectionSuccessResponse is the success response envelope for POST /collections (201).
type CreateCollectionSuccessResponse struct {
	Data  *domain.Collection `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// GetCollectionResponse is the data payload for GET /collections/{collectionID} (200).
type GetCollectionResponse struct {
	Collection *domain.Collection       `json:"collection"`
	Items      []*domain.CollectionItem `json:"items"`
}

// GetCollectionSuccessResponse is the success response envelope for GET /collections/{collectionID} (200).
type GetCollectionSuccessResponse struct {
	Data  GetCollectionResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// ListMyCollectionsSuccessResponse is the success response envelope for GET /collections (200).
type ListMyCollectionsSuccessResponse struct {
	Data  []*domain.Collection `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ForkCollectionSuccessResponse is the success response envelope for POST /collections/{collectionID}/fork (201).
type ForkCollectionSuccessResponse struct {
	Data  *domain.ForkResult `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type CollectionController struct {
	Logger      *slog.Logger
	Service     domain.CollectionService
	ForkService domain.ForkService
}

func NewCollectionController(logger *slog.Logger, svc domain.CollectionService, forkSvc domain.ForkService) *CollectionController {
	return &CollectionController{
		Logger:      logger,
		Service:     svc,
		ForkService: forkSvc,
	}
}

// CreateCollection godoc
// @Summary Create a collection
// @Description Create a new bookmark collection owned by the authenticated user. Name must be unique per owner.
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCollectionRequest true "Collection data"
// @Success 201 {object} controllers.CreateCollectionSuccessResponse "data contains the created collection"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (name already in use)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /collections [post]
func (c *CollectionController) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	now := time.Now()
	collection := domain.NewCollection(userID, strings.TrimSpace(req.Name), req.Description, req.IsPublic, now, now)
	collection.Category = req.Category
	collection.Tags = req.Tags
	if err := c.Service.CreateCollection(r.Context(), collection); err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "collection name already in use")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, collection)
}

// ListMyCollections godoc
// @Summary List collections owned by the current user
// @Description Returns collections where the authenticated user is the owner.
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMyCollectionsSuccessResponse "data is an array of collections"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /collections [get]
func (c *CollectionController) ListMyCollections(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	collections, err := c.Service.ListMyCollections(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	if collections == nil {
		collections = []*domain.Collection{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, collections)
}

// GetCollection godoc
// @Summary Get a collection with a page of items
// @Description Returns the collection and a page of its items. Public collections are readable by any authenticated user; private collections require at least view access.
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collectionID path string true "Collection ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.GetCollectionSuccessResponse "data contains collection and items"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /collections/{collectionID} [get]
func (c *CollectionController) GetCollection(w http.ResponseWriter, r *http.Request) {
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
	collection, items, err := c.Service.GetCollection(r.Context(), collectionID, userID, params)
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
	if items == nil {
		items = []*domain.CollectionItem{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, GetCollectionResponse{Collection: collection, Items: items})
}

// ForkCollection godoc
// @Summary Fork a collection
// @Description Creates a private copy of the collection and all its items for the authenticated user, in a single transaction. The copy's name is deduplicated with a " (Copy)" suffix. Oversized collections are rejected before any write.
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collectionID path string true "Collection ID"
// @Success 201 {object} controllers.ForkCollectionSuccessResponse "data contains the new collection id and copied item count"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (collection too large)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (no read access)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /collections/{collectionID}/fork [post]
func (c *CollectionController) ForkCollection(w http.ResponseWriter, r *http.Request) {
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
	result, err := c.ForkService.Fork(r.Context(), collectionID, userID)
	if err != nil {
		var capErr *domain.CapacityExceededError
		if errors.As(err, &capErr) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, capErr.Error())
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
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}
