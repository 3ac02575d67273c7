package main

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/anupsamy/squadup/internal/pkg/config"
)

func TestRun_ReturnsBootstrapError(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Password: "p", DBName: "squadup", SSLMode: "disable",
	}}

	err := run(cfg, "squadup-worker", slog.Default())
	if err == nil || !strings.HasPrefix(err.Error(), "bootstrap:") {
		t.Fatalf("expected a bootstrap error, got %v", err)
	}
}
