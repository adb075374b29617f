package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"avocadoanalytics/internal/app"
)

// Embedded page template and static assets
//
//go:embed all:frontend
var frontendFiles embed.FS

func main() {
	frontendFS, err := fs.Sub(frontendFiles, "frontend")
	if err != nil {
		slog.Error("Failed to open embedded frontend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.NewApplication(frontendFS)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
