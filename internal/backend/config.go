package backend

import (
	"fmt"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/services"
)

// BackendType selects where the ledger namespaces are persisted.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds everything needed to assemble a Backend.
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Reminder delivery; empty URL falls back to a no-op collaborator
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	StatsCacheSize int
	StatsCacheTTL  time.Duration

	Thresholds services.CorrelationThresholds
}

// ConfigFromApp derives a backend Config from the validated process config.
func ConfigFromApp(cfg *config.Config, backendType BackendType) (Config, error) {
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("unsupported backend type: %s", backendType)
	}

	daily, category, err := cfg.Thresholds()
	if err != nil {
		return Config{}, fmt.Errorf("correlation thresholds: %w", err)
	}

	return Config{
		Type:           backendType,
		SQLiteDBPath:   cfg.SQLiteDBPath,
		AMQPURL:        cfg.AMQPURL,
		AMQPExchange:   cfg.AMQPExchange,
		AMQPQueue:      cfg.AMQPQueue,
		StatsCacheSize: cfg.StatsCacheSize,
		StatsCacheTTL:  cfg.StatsCacheTTL,
		Thresholds:     services.CorrelationThresholds{Daily: daily, Category: category},
	}, nil
}
