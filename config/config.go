// Package config loads service configuration from the environment. Every
// setting has a ZAP_-prefixed name plus a bare fallback for compatibility
// with existing deployments.
package config

import (
	"github.com/longregen/zap/bus"
	"github.com/longregen/zap/store"
)

type Config struct {
	Server  ServerConfig
	Scylla  store.Config
	NATS    bus.Config
	Secrets SecretsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type SecretsConfig struct {
	// AccessToken signs and verifies the HS256 tokens presented at upgrade.
	AccessToken string
	// ConversationID keys the username hashes embedded in conversation
	// identifiers and used as bus subjects.
	ConversationID string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: GetEnvWithFallback("ZAP_SERVER_HOST", "HOST", "0.0.0.0"),
			Port: GetEnvIntWithFallback("ZAP_SERVER_PORT", "PORT", 8000),
		},
		Scylla: store.Config{
			Host:     GetEnvWithFallback("ZAP_SCYLLA_HOST", "SCYLLA_HOSTNAME", "127.0.0.1"),
			Username: GetEnvWithFallback("ZAP_SCYLLA_USERNAME", "SCYLLA_USERNAME", "cassandra"),
			Password: GetEnvWithFallback("ZAP_SCYLLA_PASSWORD", "SCYLLA_PASSWORD", "cassandra"),
			Keyspace: GetEnv("ZAP_SCYLLA_KEYSPACE", "zap"),
		},
		NATS: bus.Config{
			URL:       GetEnvWithFallback("ZAP_NATS_URL", "NATS_CONNECTION_STRING", "nats://127.0.0.1:4222"),
			CredsPath: GetEnvWithFallback("ZAP_NATS_CREDS_PATH", "NATS_CRED_PATH", ""),
		},
		Secrets: SecretsConfig{
			AccessToken:    MustEnvWithFallback("ZAP_ACCESS_TOKEN_SECRET", "ACCESS_TOKEN_SECRET"),
			ConversationID: MustEnvWithFallback("ZAP_CONVERSATION_ID_SECRET", "CONVERSATION_ID_SECRET"),
		},
	}
}
