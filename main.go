package main

import (
	"log"

	"github.com/joho/godotenv"

	"facturas/cmd"
	"facturas/internal/config"
	"facturas/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Configuration problems (e.g. a missing API key) are reported by the
	// command that needs the value; here we only need the logger settings.
	cfg, err := config.Load()
	if err != nil {
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	cmd.Execute()
}
