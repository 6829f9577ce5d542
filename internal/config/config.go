package config

import "time"

// Config holds client configuration values.
type Config struct {
	// Endpoint is the chat server websocket URL.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// ReconnectInterval is the fixed delay before a reconnect attempt
	// after a transport failure. Zero disables reconnection.
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval" yaml:"reconnect_interval"`
	// RequestTimeout bounds each correlated request/response exchange.
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// ProtocolVariant selects the outbound handler spelling: "classic"
	// or "alt".
	ProtocolVariant string `mapstructure:"protocol_variant" yaml:"protocol_variant"`
	// MucType is the directory category requested when listing rooms.
	MucType string `mapstructure:"muc_type" yaml:"muc_type"`
	// LogLevel is the zerolog level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration matching the original web client's
// behavior.
func Default() Config {
	return Config{
		Endpoint:          "wss://chatp.net:5333/server",
		ReconnectInterval: 5 * time.Second,
		RequestTimeout:    15 * time.Second,
		ProtocolVariant:   "classic",
		MucType:           "public_rooms",
		LogLevel:          "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Endpoint != "" {
		c.Endpoint = other.Endpoint
	}
	if other.ReconnectInterval != 0 {
		c.ReconnectInterval = other.ReconnectInterval
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.ProtocolVariant != "" {
		c.ProtocolVariant = other.ProtocolVariant
	}
	if other.MucType != "" {
		c.MucType = other.MucType
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
