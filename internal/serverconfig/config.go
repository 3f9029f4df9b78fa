// Package serverconfig reads the HTTP server settings from the environment.
package serverconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the process-level settings not owned by a subsystem.
type Config struct {
	// Addr the HTTP server listens on, host:port.
	Addr string
	// DBEnabled turns on PostgreSQL persistence of collected records.
	DBEnabled bool
	// ExportDir receives generated export files.
	ExportDir string
	// TaskRetention bounds how long finished tasks stay queryable.
	TaskRetention time.Duration
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration
}

// NewConfig builds a Config from the environment with sensible defaults.
func NewConfig() (*Config, error) {
	cfg := &Config{
		Addr:            ":8000",
		ExportDir:       "exports",
		TaskRetention:   time.Hour,
		ShutdownTimeout: 10 * time.Second,
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return nil, fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		cfg.Addr = ":" + port
	}
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if v := os.Getenv("DB_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_ENABLED %q: %w", v, err)
		}
		cfg.DBEnabled = enabled
	}
	if dir := os.Getenv("EXPORT_DIR"); dir != "" {
		cfg.ExportDir = dir
	}
	if v := os.Getenv("TASK_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TASK_RETENTION %q: %w", v, err)
		}
		cfg.TaskRetention = d
	}
	return cfg, nil
}
