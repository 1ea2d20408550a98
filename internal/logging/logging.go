// Package logging builds the structured logger shared by the server and CLI.
//
// Logs always go to stderr; stdout carries the MCP stdio protocol.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/pdfqa-mcp/internal/config"
)

// New returns a logger configured from cfg, writing to stderr
func New(cfg config.LogConfig) (*slog.Logger, error) {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter returns a logger configured from cfg, writing to w
func NewWithWriter(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), nil
}

// ParseLevel maps a level name to a slog.Level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
