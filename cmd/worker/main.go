package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"flashsale-backend/pkg/container"
	"flashsale-backend/pkg/logger"
)

func main() {
	// .env is for development; production uses system environment
	// variables.
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	c, err := container.NewContainer()
	if err != nil {
		logger.Fatal("failed to initialize container", err)
	}
	defer c.Cleanup()

	handlers := initializeHandlers(c)

	srv := setupAsynqServer(c.Config, handlers)
	scheduler := setupScheduler(c.Config)

	go startHealthCheckServer(c.Config.Worker.HealthPort)

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down", nil)
	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info("worker stopped", nil)
}
