package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"bookmarkly/internal/delivery/http/controllers"
)

// Middleware wraps a handler func, e.g. middleware.RequireAuth.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// NewRouter initializes the HTTP router with all application routes.
// auth guards the routes that require a Bearer token.
func NewRouter(
	authController *controllers.AuthController,
	collectionController *controllers.CollectionController,
	inviteController *controllers.InviteController,
	maintenanceController *controllers.MaintenanceController,
	auth Middleware,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Collections
	mux.HandleFunc("POST /collections", auth(collectionController.CreateCollection))
	mux.HandleFunc("GET /collections", auth(collectionController.ListMyCollections))
	mux.HandleFunc("GET /collections/{collectionID}", auth(collectionController.GetCollection))
	mux.HandleFunc("POST /collections/{collectionID}/fork", auth(collectionController.ForkCollection))

	// Invites
	mux.HandleFunc("POST /collections/{collectionID}/invites", auth(inviteController.CreateInvite))
	mux.HandleFunc("GET /collections/{collectionID}/invites", auth(inviteController.ListInvites))
	mux.HandleFunc("GET /invites/{inviteID}", auth(inviteController.GetInviteByID))
	mux.HandleFunc("GET /invites/token/{token}", auth(inviteController.GetInviteByToken))
	mux.HandleFunc("POST /invites/token/{token}", auth(inviteController.RespondToInvite))
	mux.HandleFunc("POST /invites/{inviteID}/cancel", auth(inviteController.CancelInvite))
	mux.HandleFunc("POST /invites/{inviteID}/resend", auth(inviteController.ResendInvite))

	// Maintenance (shared-secret, not user auth)
	mux.HandleFunc("POST /maintenance/invites/cleanup", maintenanceController.CleanupInvites)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
