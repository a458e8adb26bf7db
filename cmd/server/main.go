// Package main implements the entry point for the image demo server: a web
// app that turns submitted text into images through an external paid
// tool-calling service and streams progress to connected clients.
package main

import (
	"context"
	"log"

	"github.com/atxp-dev/atxp-image-demo/internal/config"
	"github.com/atxp-dev/atxp-image-demo/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.Setup(cfg.Server)
	l.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"image_job_base_url", cfg.ImageJob.BaseURL)

	app := newApplication(cfg, l)

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
