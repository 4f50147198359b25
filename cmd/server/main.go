package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/porty/backend/internal/config"
	"github.com/porty/backend/internal/database"
	"github.com/porty/backend/internal/handlers"
	"github.com/porty/backend/internal/middleware"
	"github.com/porty/backend/internal/services"
	"github.com/porty/backend/internal/storage"
	"github.com/porty/backend/pkg/logger"
	"github.com/porty/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB, cfg.Admin)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	auditService := services.NewAuditService(db)

	authHandler := handlers.NewAuthHandler(db, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(db)
	projectsHandler := handlers.NewProjectsHandler(db, storageClient, auditService, cfg.Upload)
	adminHandler := handlers.NewAdminHandler(db, storageClient, auditService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 64 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.FrontendURL, cfg.Server.BaseDomain))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())
	app.Use(middleware.Tenant(cfg.Server.BaseDomain))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 15 * time.Minute,
	})

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authLimiter, middleware.RejectBase64, authHandler.Register)
	authRoutes.Post("/login", authLimiter, authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Get("/check-subdomain/:subdomain", authHandler.CheckSubdomain)

	api.Get("/public/portfolio", portfolioHandler.GetPublicByHost)

	portfolioRoutes := api.Group("/portfolio")
	portfolioRoutes.Get("/me", authMiddleware.RequireAuth, portfolioHandler.GetMine)
	portfolioRoutes.Put("/me", authMiddleware.RequireAuth, middleware.RejectBase64, portfolioHandler.UpdateMine)
	portfolioRoutes.Get("/:subdomain", portfolioHandler.GetPublic)

	projectRoutes := api.Group("/projects", authMiddleware.RequireAuth)
	projectRoutes.Get("/me", projectsHandler.ListMine)
	projectRoutes.Post("/upload/image", projectsHandler.UploadImage)
	projectRoutes.Post("/upload/video", projectsHandler.UploadVideo)
	projectRoutes.Post("/external", middleware.RejectBase64, projectsHandler.AddExternal)
	projectRoutes.Put("/reorder", middleware.RejectBase64, projectsHandler.Reorder)
	projectRoutes.Get("/:id", projectsHandler.Get)
	projectRoutes.Put("/:id", middleware.RejectBase64, projectsHandler.Update)
	projectRoutes.Delete("/:id", projectsHandler.Delete)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/stats", adminHandler.Stats)
	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Get("/user/:id", adminHandler.GetUser)
	adminRoutes.Put("/user/:id/suspend", adminHandler.SuspendUser)
	adminRoutes.Put("/user/:id/unsuspend", adminHandler.UnsuspendUser)
	adminRoutes.Put("/user/:id/template", adminHandler.ChangeTemplate)
	adminRoutes.Delete("/user/:id", adminHandler.DeleteUser)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":        cfg.Server.Port,
		"address":     listenAddr,
		"base_domain": cfg.Server.BaseDomain,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			auditService.Close()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
