package config

import (
	"time"

	"roomop/internal/guardrails"
	"roomop/internal/retrypolicy"
)

// Config is the top-level configuration structure for roomop.
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	RoomServer RoomServerConfig   `yaml:"roomServer"`
	Operator   OperatorConfig     `yaml:"operator"`
	Guardrails guardrails.Config  `yaml:"guardrails"`
	Retry      retrypolicy.Config `yaml:"retry"`
	Events     EventsConfig       `yaml:"events"`
	Audit      AuditConfig        `yaml:"audit"`
}

// ServerConfig defines the operator's own HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// RoomServerConfig defines how the operator reaches the room service.
type RoomServerConfig struct {
	BaseURL   string `yaml:"baseUrl,omitempty"`
	AuthToken string `yaml:"authToken,omitempty"`

	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`

	// RateLimit caps outgoing requests per second; Burst is the token
	// bucket size.
	RateLimit float64 `yaml:"rateLimit,omitempty"`
	Burst     int     `yaml:"burst,omitempty"`
}

// OperatorConfig defines the reconcile loop behavior.
type OperatorConfig struct {
	// SpecPath is the room spec YAML file to load and watch.
	SpecPath string `yaml:"specPath,omitempty"`

	// Interval is the periodic reconcile trigger interval.
	Interval time.Duration `yaml:"interval,omitempty"`

	// ApplyFanout bounds concurrent applies within one operation class.
	ApplyFanout int `yaml:"applyFanout,omitempty"`
}

// EventsConfig defines the event stream behavior.
type EventsConfig struct {
	QueueCapacity     int           `yaml:"queueCapacity,omitempty"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval,omitempty"`
}

// AuditConfig defines audit log retention.
type AuditConfig struct {
	MaxEntries int `yaml:"maxEntries,omitempty"`
}
