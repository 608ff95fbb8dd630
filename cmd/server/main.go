package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"k8s.io/klog/v2"

	"github.com/lingoflow/backend/config"
	"github.com/lingoflow/backend/internal/handler"
	"github.com/lingoflow/backend/internal/pkg/database"
	"github.com/lingoflow/backend/internal/pkg/translator"
	"github.com/lingoflow/backend/internal/repository"
	"github.com/lingoflow/backend/internal/router"
	"github.com/lingoflow/backend/internal/service"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg := config.GetConfig()

	if cfg.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	projectRepo := repository.NewProjectRepository(db)
	pageRepo := repository.NewPageRepository(db)
	rowRepo := repository.NewRowRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	glossaryRepo := repository.NewGlossaryRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	rowService := service.NewRowService(cfg, projectRepo, pageRepo, rowRepo, auditService)
	projectService := service.NewProjectService(projectRepo, pageRepo, rowRepo, rowService, auditService)
	templateService := service.NewTemplateService(templateRepo, auditService)
	glossaryService := service.NewGlossaryService(glossaryRepo, auditService)
	userService := service.NewUserService(cfg, userRepo, auditService)
	approvalService := service.NewApprovalService(rowRepo, projectRepo, rowService, auditService)

	provider, err := translator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}
	translateService, err := service.NewTranslateService(cfg, provider, rowService, templateService, glossaryService, auditService)
	if err != nil {
		log.Fatalf("Failed to initialize translation service: %v", err)
	}
	defer translateService.Release()

	// Seed the base template and the first admin so a fresh install works.
	if _, err := templateService.EnsureDefault(); err != nil {
		log.Fatalf("Failed to seed default template: %v", err)
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		if err := userService.EnsureAdmin(adminEmail, adminPassword); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	reconciler := service.NewReconciler(cfg, rowService, auditService)
	if err := reconciler.Start(); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}
	defer reconciler.Stop()

	projectHandler := handler.NewProjectHandler(projectService)
	rowHandler := handler.NewRowHandler(rowService)
	translateHandler := handler.NewTranslateHandler(translateService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	templateHandler := handler.NewTemplateHandler(templateService)
	glossaryHandler := handler.NewGlossaryHandler(glossaryService)
	userHandler := handler.NewUserHandler(userService)
	auditHandler := handler.NewAuditHandler(auditService)

	r := router.Setup(cfg, userService,
		projectHandler, rowHandler, translateHandler, approvalHandler,
		templateHandler, glossaryHandler, userHandler, auditHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
