package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/andreyxaxa/Frame-Ingest/config"
	"github.com/andreyxaxa/Frame-Ingest/internal/app"
	"github.com/joho/godotenv"
)

const _defaultEnvFile = ".env"

func main() {
	// Config
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = _defaultEnvFile
	}

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("config error: %s", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config error: %s", err)
	}

	// Run
	app.Run(cfg)
}
