package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"prodhub/catalog-api/config"
	"prodhub/catalog-api/handlers"
	"prodhub/catalog-api/internal/store"
	"prodhub/catalog-api/internal/worker"
	"prodhub/catalog-api/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	config.InitLogger()

	if err := config.InitSupabase(); err != nil {
		log.Fatalf("Failed to initialize Supabase: %v", err)
	}
	pgClient, err := config.NewPostgrestClient()
	if err != nil {
		log.Fatalf("Failed to initialize PostgREST client: %v", err)
	}

	jobStore := store.NewJobStore(pgClient)
	productStore := store.NewProductStore(pgClient)

	dispatcher := worker.NewDispatcher(config.WorkerCount(), config.JobQueueSize(), config.Log)
	dispatcher.Run()

	h := handlers.NewApplicationHandler(config.Log, config.SupabaseClient, jobStore, productStore, dispatcher)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Catalog API is healthy",
		})
	})

	apiV1 := app.Group("/api/v1")

	// Async import pipeline
	apiV1.Post("/products/upload", h.UploadProducts)
	apiV1.Post("/products/bulk_delete", h.BulkDeleteProducts)
	apiV1.Get("/jobs/:jobId", h.GetJobStatus)

	// Product routes
	apiV1.Get("/products", h.ListProducts)
	apiV1.Post("/products", h.CreateProduct)
	apiV1.Get("/products/:id", h.GetProduct)
	apiV1.Patch("/products/:id", h.UpdateProduct)
	apiV1.Delete("/products/:id", h.DeleteProduct)

	// Webhook routes
	apiV1.Get("/webhooks", h.ListWebhooks)
	apiV1.Post("/webhooks", h.CreateWebhook)
	apiV1.Get("/webhooks/:id", h.GetWebhook)
	apiV1.Patch("/webhooks/:id", h.UpdateWebhook)
	apiV1.Delete("/webhooks/:id", h.DeleteWebhook)
	apiV1.Post("/webhooks/:id/test", h.TestWebhook)

	go func() {
		addr := config.ListenAddr()
		config.Log.WithField("addr", addr).Info("Starting Catalog API")
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, then let in-flight
	// imports finish so their job records reach a terminal state.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	config.Log.Info("Shutting down")
	if err := app.Shutdown(); err != nil {
		config.Log.WithField("error", err.Error()).Error("Server shutdown failed")
	}
	dispatcher.Stop()
	config.Log.Info("Shutdown complete")
}
