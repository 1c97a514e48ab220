package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"firepm/internal/config"
	"firepm/internal/database"
	"firepm/internal/domain/assistant"
	"firepm/internal/domain/auth"
	"firepm/internal/domain/document"
	"firepm/internal/domain/media"
	"firepm/internal/domain/notification"
	"firepm/internal/domain/project"
	"firepm/internal/middleware"
	jwtsvc "firepm/internal/pkg/jwt"
	"firepm/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := db.AutoMigrate(
		&auth.User{},
		&project.Project{},
		&media.File{},
		&media.FileVersion{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.New(ctx, storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		log.Printf("storage ping failed, continuing: %v", err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	userRepo := auth.NewRepository(db)
	projectRepo := project.NewRepository(db)
	mediaRepo := media.NewRepository(db)

	authHandler := auth.NewHandler(auth.NewService(userRepo, j))
	projectHandler := project.NewHandler(projectRepo)

	mediaService := media.NewService(mediaRepo, projectRepo, userRepo, store, cfg.MediaBucket, cfg.SignedURLTTL)
	mediaHandler := media.NewHandler(mediaService)

	documentService := document.NewService(projectRepo, mediaService, document.NewHTTPRenderer(cfg.RendererURL))
	documentHandler := document.NewHandler(documentService)

	notificationService := notification.NewService(
		notification.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom),
		notification.NewWebhookSMS(cfg.SMSGatewayURL),
	)
	notificationHandler := notification.NewHandler(notificationService)

	assistantHandler := assistant.NewHandler(assistant.NewService(projectRepo), cfg.AssistantSecret)

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	{
		// public
		auth.RegisterRoutes(v1, authHandler)
		assistant.RegisterRoutes(v1, assistantHandler)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			project.RegisterRoutes(protected, projectHandler)
			media.RegisterRoutes(protected, mediaHandler)
			document.RegisterRoutes(protected, documentHandler)
			notification.RegisterRoutes(protected, notificationHandler)
		}
	}

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
