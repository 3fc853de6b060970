package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/ngocminh/workpoint-api/internal/config"
	"github.com/ngocminh/workpoint-api/internal/database"
	"github.com/ngocminh/workpoint-api/internal/routes"
	"github.com/ngocminh/workpoint-api/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	if err := services.InitPush(cfg.FCMServiceAccount); err != nil {
		log.Printf("push: disabled: %v", err)
	}
	if err := services.InitStorage(cfg); err != nil {
		log.Printf("storage: disabled: %v", err)
	}

	worker := services.NewOutboxWorker()
	worker.Start()
	defer worker.Stop()

	app := fiber.New(fiber.Config{
		AppName: "workpoint-api",
	})
	app.Use(fiberlog.New())
	app.Use(cors.New())

	routes.Setup(app)

	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
