package config

import (
	"time"

	redisclient "github.com/vietddude/nodewatch/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig  `yaml:"server"`
	Logging   LoggingConfig `yaml:"logging"`
	Monitor   MonitorConfig `yaml:"monitor"`
	Processes []string      `yaml:"processes"`
	Syscoin   ChainConfig   `yaml:"syscoin"`
	Ethereum  ChainConfig   `yaml:"ethereum"`
	Restart   RestartConfig `yaml:"restart"`
	Mail      MailConfig    `yaml:"mail"`
	Uptime    UptimeConfig  `yaml:"uptime"`
	History   HistoryConfig `yaml:"history"`
	LockFile  string        `yaml:"lock_file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
	// AdminToken guards POST /admin/autorestart. Empty disables the check.
	AdminToken string `yaml:"admin_token"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MonitorConfig drives the alert decision engine.
type MonitorConfig struct {
	IntervalSeconds   int           `yaml:"interval"`
	EnableAutoRestart bool          `yaml:"enable_autorestart"`
	EnableMail        bool          `yaml:"enable_mail"`
	ReminderInterval  time.Duration `yaml:"reminder_interval"` // 0 = remind every tick
}

// Interval returns the time between health checks.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalSeconds) * time.Second
}

// EndpointConfig is a JSON-RPC endpoint. Basic auth goes in the URL userinfo.
type EndpointConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ChainConfig holds the local node and reference endpoints for one chain.
type ChainConfig struct {
	Local   EndpointConfig `yaml:"local"`
	Remote  EndpointConfig `yaml:"remote"`
	MaxLag  uint64         `yaml:"max_lag"`
	Timeout time.Duration  `yaml:"timeout"`
}

// RestartConfig describes the stop-and-relaunch primitive.
type RestartConfig struct {
	StopCommand   string        `yaml:"stop_command"`
	StartCommand  string        `yaml:"start_command"`
	Timeout       time.Duration `yaml:"timeout"`
	SettleTimeout time.Duration `yaml:"settle_timeout"`
}

// MailConfig holds SMTP transport parameters.
type MailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	TLS      string   `yaml:"tls"` // mandatory, opportunistic, none, ssl
}

// UptimeConfig selects where the last observed host uptime is kept.
type UptimeConfig struct {
	Backend string             `yaml:"backend"` // file, redis
	Path    string             `yaml:"path"`
	Redis   redisclient.Config `yaml:"redis"`
}

// HistoryConfig configures the event journal.
type HistoryConfig struct {
	Driver    string        `yaml:"driver"` // memory, sqlite, postgres
	DSN       string        `yaml:"dsn"`
	MaxConns  int           `yaml:"max_conns"`
	Retention time.Duration `yaml:"retention"` // 0 = keep forever
}
