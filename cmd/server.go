// server.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/chat/chatapi"
	"github.com/Abraxas-365/shohayok/pkg/config"
	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const version = "1.0.0"

func main() {
	// 0. .env es opcional
	_ = godotenv.Load()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger with config
	logx.SetLevel(logx.ParseLevel(cfg.Server.LogLevel))
	logx.SetJSON(cfg.Server.LogFormat == "json")

	logx.Info("🚀 Starting Shohayok API Server...")
	logx.Infof("Environment: %s", cfg.Environment)

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Start background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	// 5. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "Shohayok API",
		DisableStartupMessage: true,
		ErrorHandler:          chatapi.ErrorHandler(cfg.IsDevelopment()),
		BodyLimit:             1 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
		EnablePrintRoutes:     false,
	})

	// 6. Global Middleware
	setupMiddleware(app, cfg)

	// 7. Health Check & Docs Endpoints
	app.Get("/health", healthCheckHandler(container))
	app.Get("/docs", apiDocsHandler(cfg))

	// 8. Register Routes
	registerRoutes(app, container)

	// 9. 404 Handler
	app.Use(chatapi.NotFoundHandler)

	// 10. Print Route Summary
	printRouteSummary()

	// 11. Start Server with Graceful Shutdown
	startServer(app, container, cancel)
}

// ============================================================================
// Setup Functions
// ============================================================================

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	// Panic recovery
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	// Request ID
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	// CORS
	corsOrigins := "*"
	if len(cfg.Server.CORSOrigins) > 0 {
		corsOrigins = strings.Join(cfg.Server.CORSOrigins, ",")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:  corsOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	// Request logger
	logFormat := "${time} | ${status} | ${latency} | ${method} ${path}"
	if cfg.IsDevelopment() {
		logFormat += " | ${ip} | ${respHeader:X-Request-ID}\n"
	} else {
		logFormat += "\n"
	}

	app.Use(logger.New(logger.Config{
		Format:     logFormat,
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))
}

func registerRoutes(app *fiber.App, container *Container) {
	logx.Info("📝 Registering routes...")

	// Routes: /, /session, /chat, /memory/:user_id, /memory/:user_id/events
	container.ChatHandlers.RegisterRoutes(app)
	logx.Info("✓ Chat routes registered")

	logx.Info("✅ All routes registered")
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler returns a health check handler
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":      "healthy",
			"service":     "shohayok-api",
			"version":     version,
			"environment": container.Config.Environment,
			"timestamp":   fmt.Sprintf("%d", time.Now().Unix()),
		}

		for name, err := range container.Ping(c.UserContext()) {
			if err != nil {
				health[name] = "unhealthy"
				health[name+"_error"] = err.Error()
				health["status"] = "degraded"
			} else {
				health[name] = "healthy"
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// apiDocsHandler returns API documentation
func apiDocsHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := fiber.Map{
			"enabled": cfg.Session.TokensEnabled(),
		}
		if cfg.Session.TokensEnabled() {
			auth["header"] = "Authorization: Bearer <token from POST /session>"
			auth["token_ttl"] = cfg.Session.TokenTTL.String()
		}

		return c.JSON(fiber.Map{
			"version":  version,
			"base_url": cfg.Server.BaseURL,
			"endpoints": fiber.Map{
				"root":    "GET /",
				"session": "POST /session",
				"chat":    "POST /chat",
				"memory":  "GET /memory/:user_id",
				"events":  "GET /memory/:user_id/events",
				"health":  "GET /health",
			},
			"authentication": auth,
			"agent": fiber.Map{
				"provider": cfg.Agent.Provider,
				"model":    cfg.Agent.ModelOrDefault(),
				"timeout":  cfg.Agent.Timeout.String(),
			},
			"memory": fiber.Map{
				"backend":            cfg.Memory.Backend,
				"checkpoint_backend": cfg.Memory.CheckpointBackend,
				"cache":              cfg.Memory.CacheEnabled,
			},
		})
	}
}

// ============================================================================
// Utility Functions
// ============================================================================

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return "req-" + uuid.NewString()
}

func repeatString(s string, count int) string {
	return strings.Repeat(s, count)
}

// printRouteSummary prints a summary of registered routes
func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Health: /health")
	logx.Info("   ├─ Docs: /docs")
	logx.Info("   ├─ Info: /")
	logx.Info("   ├─ Session: /session")
	logx.Info("   ├─ Chat: /chat")
	logx.Info("   └─ Memory: /memory/:user_id, /memory/:user_id/events")
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, container *Container, cancel context.CancelFunc) {
	cfg := container.Config
	port := fmt.Sprintf("%d", cfg.Server.Port)

	// Run server in a goroutine
	go func() {
		logx.Info("=" + repeatString("=", 70))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("📚 API Docs: http://localhost:%s/docs", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Infof("🔒 Environment: %s", cfg.Environment)
		logx.Infof("🤖 Agent: %s", cfg.Agent.Provider)
		logx.Info("=" + repeatString("=", 70))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	gracefulShutdown(app, container, cancel)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App, container *Container, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal
	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	// Cancel context to stop background services
	cancel()

	// Cerrar el broker termina los streams SSE abiertos
	container.MemoryBroker.Close()

	// Shutdown the server with timeout
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
