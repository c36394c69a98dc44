// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

// Session store backends.
const (
	SessionStoreSQL   = "sqlite"
	SessionStoreRedis = "redis"
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Session  SessionConfig
	SMTP     SMTPConfig
	Metrics  MetricsConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int    // in MB
	MediaDir    string // uploaded post images, served under /media
	TLSCertFile string // serve HTTPS when both files are set
	TLSKeyFile  string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type SessionConfig struct { //nolint:govet // fieldalignment not critical
	CookieName string // Session cookie name
	MaxAge     int    // Session max age in seconds
	HashKey    string // 32-byte hex string for HMAC signing
	BlockKey   string // 32-byte hex string for AES encryption (optional)
	Store      string // sqlite, redis
	RedisURL   string // redis://host:port/db
}

// SMTPConfig holds outbound mail settings. An empty Host means mails are only logged.
type SMTPConfig struct { //nolint:govet // fieldalignment not critical
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

type MetricsConfig struct {
	Enabled bool
}

// Secure reports whether cookies should carry the Secure attribute.
func (c *Config) Secure() bool {
	return strings.HasPrefix(c.Server.BaseURL, "https://")
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
			MediaDir:    cmd.String("media-dir"),
			TLSCertFile: cmd.String("tls-cert-file"),
			TLSKeyFile:  cmd.String("tls-key-file"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		Session: SessionConfig{
			CookieName: cmd.String("session-cookie-name"),
			MaxAge:     int(cmd.Int("session-max-age")),
			HashKey:    cmd.String("session-hash-key"),
			BlockKey:   cmd.String("session-block-key"),
			Store:      strings.ToLower(cmd.String("session-store")),
			RedisURL:   cmd.String("redis-url"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Metrics: MetricsConfig{
			Enabled: cmd.Bool("metrics"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	return cfg
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Session.Store {
	case SessionStoreSQL:
	case SessionStoreRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis-url is required for the redis session store")
		}
	default:
		return fmt.Errorf("unknown session store: %s", c.Session.Store)
	}
	if c.Session.HashKey == "" && !IsLocalhost(c.Server.Host) {
		return fmt.Errorf("session-hash-key is required when not running on localhost")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return fmt.Errorf("tls-cert-file and tls-key-file must be set together")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return fmt.Errorf("smtp-from is required when smtp-host is set")
	}
	return nil
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Server.Port

	scheme, defaultPort := "http", 80
	if cfg.Server.TLSCertFile != "" {
		scheme, defaultPort = "https", 443
	}

	// Hide default port in URL
	if port == defaultPort {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func source(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(env), toml.TOML(key, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: source("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringFlag{
			Name:    "media-dir",
			Value:   "./data/media",
			Usage:   "Directory served under /media for featured images",
			Sources: source("MEDIA_DIR", "server.media_dir"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file",
			Sources: source("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file",
			Sources: source("TLS_KEY_FILE", "tls.key_file"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/inkwell.db",
			Usage:   "Database DSN",
			Sources: source("DATABASE_DSN", "database.dsn"),
		},
		// Session flags
		&cli.StringFlag{
			Name:    "session-cookie-name",
			Value:   "_session",
			Usage:   "Session cookie name",
			Sources: source("SESSION_COOKIE_NAME", "session.cookie_name"),
		},
		&cli.IntFlag{
			Name:    "session-max-age",
			Value:   1209600, // 2 weeks in seconds
			Usage:   "Session max age in seconds",
			Sources: source("SESSION_MAX_AGE", "session.max_age"),
		},
		&cli.StringFlag{
			Name:    "session-hash-key",
			Usage:   "Session hash key (32-byte hex, auto-generated if empty in dev)",
			Sources: source("SESSION_HASH_KEY", "session.hash_key"),
		},
		&cli.StringFlag{
			Name:    "session-block-key",
			Usage:   "Session block key for encryption (32-byte hex, optional)",
			Sources: source("SESSION_BLOCK_KEY", "session.block_key"),
		},
		&cli.StringFlag{
			Name:    "session-store",
			Value:   SessionStoreSQL,
			Usage:   "Session store backend (sqlite, redis)",
			Sources: source("SESSION_STORE", "session.store"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the redis session store",
			Sources: source("REDIS_URL", "session.redis_url"),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP host (mails are logged when empty)",
			Sources: source("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP port",
			Sources: source("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: source("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: source("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Value:   "noreply@localhost",
			Usage:   "Sender address for outgoing mail",
			Sources: source("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Inkwell",
			Usage:   "Sender display name for outgoing mail",
			Sources: source("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: source("SMTP_TLS", "smtp.tls"),
		},
		&cli.BoolFlag{
			Name:    "metrics",
			Value:   true,
			Usage:   "Expose Prometheus metrics on /metrics",
			Sources: source("METRICS", "metrics.enabled"),
		},
	}
}
