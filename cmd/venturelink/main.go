package main

import (
	"log/slog"
	"os"

	"github.com/venturelink/venturelink/internal/server"
)

func main() {
	s, err := server.New()
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	if err := s.Start(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
