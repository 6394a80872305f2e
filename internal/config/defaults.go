package config

import (
	"time"

	"roomop/internal/audit"
	"roomop/internal/events"
	"roomop/internal/guardrails"
	"roomop/internal/reconciler"
	"roomop/internal/retrypolicy"
	"roomop/internal/specsource"
)

// GetDefaultConfig returns the stock operator configuration.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		RoomServer: RoomServerConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 10 * time.Second,
			RateLimit:      50,
			Burst:          20,
		},
		Operator: OperatorConfig{
			SpecPath:    "room.yaml",
			Interval:    specsource.DefaultInterval,
			ApplyFanout: reconciler.DefaultApplyFanout,
		},
		Guardrails: guardrails.DefaultConfig(),
		Retry:      retrypolicy.DefaultConfig(),
		Events: EventsConfig{
			QueueCapacity:     events.DefaultQueueCapacity,
			HeartbeatInterval: events.DefaultHeartbeatInterval,
		},
		Audit: AuditConfig{
			MaxEntries: audit.DefaultMaxEntries,
		},
	}
}
