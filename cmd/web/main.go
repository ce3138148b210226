package main

import (
	"accounting-admin/internal/config"
	"accounting-admin/internal/database"
	"accounting-admin/internal/router"
	"accounting-admin/internal/utils"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log = utils.ConfigureLogger(cfg)

	ctx := context.Background()

	// Initialize database
	var db *sqlx.DB
	if conn, err := database.NewMySQL(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to connect to database, continuing with in-memory data")
	} else {
		db = conn
		defer db.Close()
	}

	// Redis keeps import sessions across instances and feeds the worker queue
	var redisClient *redis.Client
	if client, err := database.NewRedis(ctx, cfg); err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, import sessions stay in memory and commits run inline")
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	deps, err := router.NewDeps(db, redisClient, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}
	defer deps.Close()

	// Initialize template engine
	engine := html.New("./views", ".html")
	engine.Reload(cfg.IsDevelopment())

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		Views:        engine,
		BodyLimit:    cfg.UploadMaxSize,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AppURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Static files
	app.Static("/static", "./public")

	// Setup routes
	router.Setup(app, deps)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := fmt.Sprintf(":%s", cfg.AppPort)
	log.Infof("Server starting on %s", port)
	if err := app.Listen(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Info("Server exited")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= fiber.StatusInternalServerError {
		utils.GetLogger().WithError(err).WithField("path", c.Path()).Error("Request failed")
	}

	// API paths and JSON clients get the envelope
	if strings.HasPrefix(c.Path(), "/api/") || c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
			"error":   err.Error(),
		})
	}

	// Return HTML error page
	return c.Status(code).Render("error", fiber.Map{
		"Title":   message,
		"Code":    code,
		"Message": message,
	})
}
