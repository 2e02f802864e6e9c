package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"flashsale-backend/pkg/logger"
)

func main() {
	// .env is for development; production uses system environment
	// variables.
	envLoaded := godotenv.Load() == nil

	env := getEnv("APP_ENV", "development")
	logger.Init(env)

	if !envLoaded {
		logger.Info("no .env file found, using system environment", nil)
	}

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	Serve()
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
