package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/example/checkflow/internal/cache"
	"github.com/example/checkflow/internal/config"
	"github.com/example/checkflow/internal/db"
	httpserver "github.com/example/checkflow/internal/http"
	"github.com/example/checkflow/internal/models"
	"github.com/example/checkflow/internal/mq"
	"github.com/example/checkflow/internal/recognizer"
	"github.com/example/checkflow/internal/repository"
	"github.com/example/checkflow/internal/service"
	"github.com/example/checkflow/internal/worker"
)

func main() {
	cfg := config.Load()

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	autoMigrate(database)

	var publisher mq.Publisher
	publisher, err = mq.NewRabbitPublisher(cfg.MQURL, cfg.MQJobExchange)
	if err != nil {
		log.Printf("warning: rabbitmq unavailable (%v), continuing without events", err)
	}
	listCache := cache.New(cfg.RedisAddress)

	jobRepo := repository.NewJobRepository(database)
	templateRepo := repository.NewTemplateRepository(database)
	officeRepo := repository.NewOfficeRepository(database)
	userRepo := repository.NewUserRepository(database)

	jobService := service.NewJobService(jobRepo, templateRepo, officeRepo, buildRecognizer(cfg), publisher, listCache)
	templateService := service.NewTemplateService(templateRepo)
	officeService := service.NewOfficeService(officeRepo)

	recognitionWorker := worker.NewRecognitionWorker(jobService, cfg.RecognitionWorkers, 100)
	jobService.AttachQueue(recognitionWorker)

	apiServer := httpserver.NewServer(jobService, templateService, officeService, userRepo)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go recognitionWorker.Run(ctx)
	go requeueLoop(ctx, jobService)

	srv := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: apiServer.Engine,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown initiated")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if publisher != nil {
		if closer, ok := publisher.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	_ = listCache.Close()
	log.Println("bye")
}

// requeueLoop picks up jobs stuck in SCAN_RECEIVED, once at startup and then
// every minute. Covers restarts and enqueues dropped by a full queue.
func requeueLoop(ctx context.Context, jobs *service.JobService) {
	if n := jobs.RequeuePending(ctx); n > 0 {
		log.Printf("requeued %d jobs awaiting recognition", n)
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := jobs.RequeuePending(ctx); n > 0 {
				log.Printf("requeued %d jobs awaiting recognition", n)
			}
		}
	}
}

func buildRecognizer(cfg config.Config) recognizer.Recognizer {
	if cfg.RecognizerMode == "remote" && cfg.RecognizerURL != "" {
		log.Printf("using remote recognizer at %s", cfg.RecognizerURL)
		return recognizer.NewRemote(cfg.RecognizerURL)
	}
	return recognizer.NewSimulated(cfg.RecognizerSeed, cfg.RecognitionDelay)
}

func autoMigrate(db *gorm.DB) {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Office{},
		&models.ChecklistTemplate{},
		&models.TemplateVersion{},
		&models.PrintJob{},
		&models.Scan{},
		&models.RecognitionResult{},
		&models.HistoryEvent{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
}

func init() {
	if mode := os.Getenv("GIN_MODE"); mode == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
