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
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/resume-studio/internal/config"
	"alfredoptarigan/resume-studio/internal/handlers"
	"alfredoptarigan/resume-studio/internal/repositories"
	"alfredoptarigan/resume-studio/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	ctx := context.Background()

	// Session persistence is optional
	var sessionRepo repositories.SessionRepository
	if cfg.Session.Persist {
		db, err := config.InitDatabase(cfg)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		sessionRepo = repositories.NewSessionRepository(db)
		log.Println("✅ Session repository initialized")
	}

	// Model client
	var model services.ModelClient
	switch cfg.Model.Provider {
	case "fake":
		model = services.NewFakeModel()
		log.Println("🧪 Using the offline fake model")
	default:
		gemini, err := services.NewGeminiModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Temperature)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
		}
		model = gemini
		log.Printf("✅ Gemini AI initialized (%s)\n", cfg.Gemini.Model)
	}

	prompts, err := services.NewPromptBuilder(cfg.Model.PromptsDir)
	if err != nil {
		log.Fatalf("❌ Failed to load prompts: %v", err)
	}

	flows, err := services.NewFlows(services.NewModelInvoker(model, prompts))
	if err != nil {
		log.Fatalf("❌ Failed to build flows: %v", err)
	}
	log.Println("✅ Flows initialized")

	// Stage notifications
	notifier := services.MultiNotifier{services.LogNotifier{}}
	if cfg.Broker.URL != "" {
		amqpNotifier, err := services.NewAMQPNotifier(cfg.Broker.URL, cfg.Broker.Exchange)
		if err != nil {
			log.Fatalf("❌ Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = append(notifier, amqpNotifier)
		log.Printf("✅ Publishing stage updates to exchange %s\n", cfg.Broker.Exchange)
	}

	// Services
	pdfParser := services.NewPDFParserService()
	uploads := services.NewUploadService(cfg.Storage.MaxFileSize, pdfParser)
	fetcher := services.NewPageFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxChars, cfg.Fetch.AllowPrivate, services.NewTextChunker())

	resumePipeline := services.NewResumeRevisionPipeline(flows, pdfParser, notifier)
	summaryPipeline := services.NewSummarizationPipeline(flows, fetcher, notifier)
	demoService := services.NewDemoResumeService(flows, notifier)
	jobService := services.NewJobSearchService(flows, pdfParser, notifier)
	log.Println("✅ Services initialized successfully")

	sessions := services.NewSessionManager(cfg.Session.Capacity, cfg.Session.TTL, sessionRepo)

	// Worker
	worker := services.NewWorker(sessions, cfg.Session.TTL, cfg.Worker.Concurrency)
	worker.Start(ctx)

	// Handlers
	h := handlers.Handlers{
		Resume:  handlers.NewResumeHandler(sessions, worker, resumePipeline, uploads),
		Summary: handlers.NewSummaryHandler(sessions, worker, summaryPipeline),
		Demo:    handlers.NewDemoResumeHandler(sessions, worker, demoService),
		Jobs:    handlers.NewJobSearchHandler(sessions, worker, jobService, uploads),
		Session: handlers.NewSessionHandler(sessions),
	}
	log.Println("✅ Handlers initialized")

	// Create Fiber app; model calls can take a while
	app := fiber.New(fiber.Config{
		AppName:      "Resume Studio API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	handlers.RegisterRoutes(app.Group("/api/v1"), h)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "Resume Studio API",
			"version":   "1.0.0",
			"endpoints": handlers.Endpoints,
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
		worker.Stop()
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	<-stopped
}
