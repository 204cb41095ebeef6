// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package config loads procrpcd's process-level configuration from the
// environment, per SPEC_FULL.md §4.L.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds the reference server's process configuration.
type Config struct {
	ListenAddr      string        `envconfig:"PROCRPC_LISTEN" default:":8420"`
	TickInterval    time.Duration `envconfig:"PROCRPC_TICK_INTERVAL" default:"20ms"`
	ProtocolVersion string        `envconfig:"PROCRPC_PROTOCOL_VERSION" default:"1.0.0"`
	LogLevel        string        `envconfig:"PROCRPC_LOG_LEVEL" default:"info"`

	// NATSURL, when set, makes procrpcd accept connections as NATS request
	// subjects instead of TCP; NATSSubject is the subject clients send new
	// session requests to (each session then uses its own inbox subjects).
	NATSURL     string `envconfig:"PROCRPC_NATS_URL"`
	NATSSubject string `envconfig:"PROCRPC_NATS_SUBJECT" default:"procrpc.connect"`

	// AuditDSN, when set, enables the relational Dispatch Audit Sink.
	// Empty means audit.NoOp.
	AuditDSN     string `envconfig:"PROCRPC_AUDIT_DSN"`
	AuditWorkers int    `envconfig:"PROCRPC_AUDIT_WORKERS" default:"4"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("%s - %w", logPrefix, err)
	}
	if c.TickInterval <= 0 {
		return nil, fmt.Errorf("%s - PROCRPC_TICK_INTERVAL must be positive", logPrefix)
	}
	return &c, nil
}
