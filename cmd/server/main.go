package main

import (
	"context"
	"log"
	"time"

	"osint_casework_go/config"
	"osint_casework_go/db"
	"osint_casework_go/handlers"
	"osint_casework_go/models"
	"osint_casework_go/services"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	conn, err := db.Initialize(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(conn)

	if err := db.AutoMigrate(conn,
		&models.Case{}, &models.Subject{}, &models.Artifact{},
		&models.LegalMark{}, &models.ArtifactLegalMark{}, &models.LegalMarkHistory{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	files, err := services.NewFileStore(cfg.ArtifactsDir())
	if err != nil {
		log.Fatalf("Failed to initialize file store: %v", err)
	}

	// The embedded browser is optional: without Chrome the app still
	// manages cases and manual artifacts, only live capture is off.
	var browser *services.BrowserSession
	browser, err = services.NewBrowserSession(cfg.ChromePath)
	if err != nil {
		log.Printf("[Browser] session unavailable: %v", err)
		browser = nil
	} else {
		defer browser.Close()
		if cfg.BrowserStartURL != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := browser.Navigate(ctx, cfg.BrowserStartURL); err != nil {
				log.Printf("[Browser] start page failed: %v", err)
			}
			cancel()
		}
	}

	archive := services.NewArchiveMirror(cfg)
	if archive.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := archive.Ping(ctx); err != nil {
			log.Printf("[Archive] bucket unreachable: %v", err)
		}
		cancel()
	}

	caseService := services.NewCaseService(conn)
	var capture services.CaptureSource
	if browser != nil {
		capture = browser
	}
	artifactService := services.NewArtifactService(conn, files, capture, archive)
	legalService := services.NewLegalService(conn, files)
	settingsService := services.NewSettingsService(conn, cfg)
	reportService := services.NewReportService(conn, files, cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	h := handlers.New(caseService, artifactService, legalService, settingsService, reportService, browser)
	h.RegisterRoutes(e)

	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
