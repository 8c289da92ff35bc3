package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/facelens/facelensbackend/config"
	"github.com/facelens/facelensbackend/database"
	"github.com/facelens/facelensbackend/handlers"
	"github.com/facelens/facelensbackend/media"
	"github.com/facelens/facelensbackend/repository"
	"github.com/facelens/facelensbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.PhotosPath, cfg.TmpPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	settings := config.LoadSettings(cfg.SettingsPath)
	photoRepo := repository.NewPhotoRepository(db)
	faceRepo := repository.NewFaceRepository(db)
	detector := media.NewRemoteDetector(cfg.DetectorURL)

	log.Printf("Initializing photo processor (Queue Size: %d)...", cfg.JobQueueSize)
	processor := workers.NewPhotoProcessor(photoRepo, faceRepo, detector, settings, cfg.JobQueueSize)
	defer processor.Stop()

	log.Printf("Storing photos in: %s", cfg.PhotosPath)
	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Detector service: %s", cfg.DetectorURL)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	statusHandler := &handlers.StatusHandler{Processor: processor, PhotoRepo: photoRepo}
	uploadHandler := &handlers.UploadHandler{Cfg: cfg, PhotoRepo: photoRepo, Processor: processor, Detector: detector}
	groupHandler := &handlers.GroupHandler{DB: sqlDB, PhotoRepo: photoRepo}
	photoHandler := &handlers.PhotoHandler{Cfg: cfg, PhotoRepo: photoRepo}
	rebuildHandler := &handlers.RebuildHandler{PhotoRepo: photoRepo, Processor: processor}
	settingsHandler := &handlers.SettingsHandler{Settings: settings}

	r.Route("/api", func(r chi.Router) {
		r.Post("/photos", uploadHandler.UploadPhotos)
		r.Get("/photos/{photoID}", photoHandler.GetPhoto)

		r.Get("/status", statusHandler.GetStatus)
		r.Post("/rebuild", rebuildHandler.Rebuild)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.ListGroups)
			r.Get("/{groupID}", groupHandler.GetGroup)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)
			r.Put("/", settingsHandler.UpdateSettings)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
