package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"annodrive/internal/config"
	"annodrive/internal/docproc"
	"annodrive/internal/handler"
	"annodrive/internal/raster"
	"annodrive/internal/repository"
	"annodrive/internal/service"
	"annodrive/internal/service/s3"
)

func connectWithRetry(dsn string, maxAttempts int, delay time.Duration) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error
	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxAttempts, err)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %v", maxAttempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	var m *migrate.Migrate
	var err error

	for i := 0; i < 5; i++ {
		m, err = migrate.New("file://migrations", databaseURL)
		if err == nil {
			break
		}
		log.Printf("Failed to create migrate instance (attempt %d/5): %v", i+1, err)
		time.Sleep(time.Second * 5)
	}

	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Printf("Found dirty database state at version %d, attempting to force version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func main() {
	// Загружаем конфигурации
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := connectWithRetry(appConfig.Database.GetDSN(), 5, time.Second*5)
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Инициализация S3 клиента
	s3Config, err := s3.NewConfig(".s3.env")
	if err != nil {
		log.Fatalf("Failed to load S3 config: %v", err)
	}

	s3Client, err := s3.NewClient(s3Config)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	// Растеризатор векторных сцен (шрифт парсится один раз при старте)
	rasterizer, err := raster.New()
	if err != nil {
		log.Fatalf("Failed to create rasterizer: %v", err)
	}

	pdfProc := docproc.NewPDFProcessor()
	imgProc := docproc.NewImageProcessor()
	compositor := docproc.NewCompositor(pdfProc, imgProc)

	// Инициализация репозиториев
	fileRepo := repository.NewFileRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	annotationRepo := repository.NewAnnotationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Инициализация сервисов
	auditService := service.NewAuditService(auditRepo)
	versionService := service.NewVersionService(fileRepo, versionRepo, s3Client, auditService)
	fileService := service.NewFileService(fileRepo, versionRepo, s3Client, pdfProc, imgProc, auditService)
	annotationService := service.NewAnnotationService(annotationRepo, fileRepo, auditService)
	exportService := service.NewExportService(versionService, annotationRepo, compositor, rasterizer, auditService)
	resetService := service.NewResetService(versionService, versionRepo, annotationRepo, s3Client, auditService)
	pdfService := service.NewPDFService(versionService, pdfProc, compositor, imgProc, auditService)
	imageService := service.NewImageService(versionService, imgProc, auditService)

	// Инициализация хендлеров
	fileHandler := handler.NewFileHandler(fileService, versionService, resetService)
	annotationHandler := handler.NewAnnotationHandler(annotationService)
	exportHandler := handler.NewExportHandler(exportService)
	auditHandler := handler.NewAuditHandler(auditService)
	pdfHandler := handler.NewPDFHandler(pdfService)
	imageHandler := handler.NewImageHandler(imageService)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// HTTP маршруты
	r.Route("/v1", func(r chi.Router) {
		fileHandler.RegisterRoutes(r)
		annotationHandler.RegisterRoutes(r)
		exportHandler.RegisterRoutes(r)
		auditHandler.RegisterRoutes(r)
		pdfHandler.RegisterRoutes(r)
		imageHandler.RegisterRoutes(r)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	// Канал для сигналов завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Server exited properly")
}
