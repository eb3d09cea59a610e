package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	CORSOrigins       []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	MaxMessageLength  int           `mapstructure:"max_message_length" yaml:"max_message_length"`
	MaxUsernameLength int           `mapstructure:"max_username_length" yaml:"max_username_length"`
	HistorySize       int           `mapstructure:"history_size" yaml:"history_size"`
	HistoryReplay     int           `mapstructure:"history_replay" yaml:"history_replay"`
	BotReplyDelay     time.Duration `mapstructure:"bot_reply_delay" yaml:"bot_reply_delay"`
	SendTimeout       time.Duration `mapstructure:"send_timeout" yaml:"send_timeout"`
	DrainTimeout      time.Duration `mapstructure:"drain_timeout" yaml:"drain_timeout"`
	UserCountInterval time.Duration `mapstructure:"user_count_interval" yaml:"user_count_interval"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		CORSOrigins:       []string{"http://localhost:3000", "http://localhost:8000"},
		DatabasePath:      ":memory:",
		MaxMessageLength:  1000,
		MaxUsernameLength: 50,
		HistorySize:       100,
		HistoryReplay:     50,
		BotReplyDelay:     500 * time.Millisecond,
		SendTimeout:       5 * time.Second,
		DrainTimeout:      30 * time.Second,
		UserCountInterval: 30 * time.Second,
		HeartbeatInterval: 30 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}
