package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"EarnPulse/internal/di"
	"EarnPulse/pkg/config"
	"EarnPulse/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	l.Info("starting earnpulse",
		logger.String("env", cfg.Environment),
		logger.String("model_backend", cfg.Model.Backend),
		logger.String("recorder", cfg.Recorder.Backend),
		logger.Int("port", cfg.Server.Port),
	)

	app, err := di.InitializeApp(cfg, l)
	if err != nil {
		l.Error("app initialization failed", logger.Error(err))
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		l.Error("app error", logger.Error(err))
		os.Exit(1)
	}
}
