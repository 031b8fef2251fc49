package main

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"bookmarkly/config"
	authadapter "bookmarkly/internal/adapters/auth"
	emailadapter "bookmarkly/internal/adapters/email"
	delivery "bookmarkly/internal/delivery/http"
	"bookmarkly/internal/delivery/http/controllers"
	"bookmarkly/internal/delivery/http/middleware"
	"bookmarkly/internal/limiter"
	"bookmarkly/internal/repository/postgres"
	"bookmarkly/internal/services"
)

// @title Bookmarkly API
// @version 1.0
// @description Bookmark collections with forking and collaboration invites.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	collectionRepo := postgres.NewCollectionRepository(db)
	itemRepo := postgres.NewCollectionItemRepository(db)
	collaboratorRepo := postgres.NewCollaboratorRepository(db)
	inviteRepo := postgres.NewInviteRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	uow := postgres.NewUnitOfWork(db)

	// Adapters
	issuer, verifier := authadapter.NewJWTTokens(cfg.JWTSecret)
	hasher := authadapter.NewBcryptHasher(12)
	mailer, err := emailadapter.NewMailer(emailadapter.MailerConfig{
		Provider:    cfg.Mailer.Provider,
		FromAddress: cfg.Mailer.FromAddress,
		FromName:    cfg.Mailer.FromName,
		SES: emailadapter.SESConfig{
			Region:          cfg.Mailer.SESRegion,
			AccessKeyID:     cfg.Mailer.SESAccessKeyID,
			SecretAccessKey: cfg.Mailer.SESSecretAccessKey,
		},
	})
	if err != nil {
		log.Fatalf("failed to create mailer: %v", err)
	}
	renderer := emailadapter.NewTemplateRenderer()

	// Services
	perms := services.NewAccessResolver(collaboratorRepo)
	authService := services.NewAuthService(userRepo, hasher, issuer, cfg.JWTExpiry)
	collectionService := services.NewCollectionService(collectionRepo, itemRepo, perms)
	pacer := limiter.NewRatePacer(cfg.ForkCopyRate)
	forkService := services.NewForkService(uow, collectionRepo, itemRepo, perms, pacer, cfg.ForkMaxItems, cfg.ForkBatchSize)
	emailService := services.NewEmailService(mailer, renderer)
	inviteService := services.NewInviteService(
		inviteRepo, collaboratorRepo, collectionRepo, userRepo,
		notificationRepo, emailService, perms, cfg.Mailer.AppBaseURL,
	)

	// Delivery
	authController := controllers.NewAuthController(logger, authService)
	collectionController := controllers.NewCollectionController(logger, collectionService, forkService)
	inviteController := controllers.NewInviteController(logger, inviteService)
	maintenanceController := controllers.NewMaintenanceController(logger, inviteService, cfg.CleanupSecret)

	requireAuth := middleware.RequireAuth(verifier, logger)
	mux := delivery.NewRouter(authController, collectionController, inviteController, maintenanceController, requireAuth)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("starting server", "port", cfg.Port, "environment", cfg.Environment)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
