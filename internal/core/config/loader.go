package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"gopkg.in/yaml.v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := AppConfig{
		Monitor: MonitorConfig{EnableAutoRestart: true, EnableMail: true},
	}
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Monitor.IntervalSeconds == 0 {
		cfg.Monitor.IntervalSeconds = 60
	}
	if len(cfg.Processes) == 0 {
		cfg.Processes = slices.Clone(domain.DefaultProcesses)
	}

	if cfg.Syscoin.Timeout == 0 {
		cfg.Syscoin.Timeout = 10 * time.Second
	}
	if cfg.Syscoin.MaxLag == 0 {
		cfg.Syscoin.MaxLag = 2
	}
	if cfg.Ethereum.Timeout == 0 {
		cfg.Ethereum.Timeout = 10 * time.Second
	}
	if cfg.Ethereum.MaxLag == 0 {
		cfg.Ethereum.MaxLag = 25
	}

	if cfg.Restart.Timeout == 0 {
		cfg.Restart.Timeout = 5 * time.Minute
	}
	if cfg.Restart.SettleTimeout == 0 {
		cfg.Restart.SettleTimeout = 2 * time.Minute
	}

	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Mail.TLS == "" {
		cfg.Mail.TLS = "mandatory"
	}

	if cfg.Uptime.Backend == "" {
		cfg.Uptime.Backend = "file"
	}
	if cfg.Uptime.Path == "" {
		cfg.Uptime.Path = "uptime.txt"
	}

	if cfg.History.Driver == "" {
		cfg.History.Driver = "memory"
	}
	if cfg.LockFile == "" {
		cfg.LockFile = os.TempDir() + "/nodewatch.lock"
	}
}

// Validate checks values that have no sensible default.
func Validate(cfg *AppConfig) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, cfg.Server.Port)
	}
	if cfg.Monitor.IntervalSeconds < 0 {
		return fmt.Errorf("%w: monitor.interval must be positive", ErrInvalid)
	}
	if cfg.Monitor.ReminderInterval < 0 {
		return fmt.Errorf("%w: monitor.reminder_interval must not be negative", ErrInvalid)
	}

	for _, name := range cfg.Processes {
		if name == "" {
			return fmt.Errorf("%w: processes must not contain an empty name", ErrInvalid)
		}
		if slices.Contains(domain.StatusFields, name) {
			return fmt.Errorf("%w: process name %q is reserved by the status endpoint", ErrInvalid, name)
		}
	}

	switch cfg.Uptime.Backend {
	case "file":
	case "redis":
		if cfg.Uptime.Redis.URL == "" {
			return fmt.Errorf("%w: uptime.redis.url is required for the redis backend", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown uptime.backend %q", ErrInvalid, cfg.Uptime.Backend)
	}

	switch cfg.History.Driver {
	case "memory":
	case "sqlite", "postgres":
		if cfg.History.DSN == "" {
			return fmt.Errorf("%w: history.dsn is required for driver %s", ErrInvalid, cfg.History.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown history.driver %q", ErrInvalid, cfg.History.Driver)
	}

	switch cfg.Mail.TLS {
	case "mandatory", "opportunistic", "none", "ssl":
	default:
		return fmt.Errorf("%w: unknown mail.tls %q", ErrInvalid, cfg.Mail.TLS)
	}
	if cfg.Mail.Host != "" && (cfg.Mail.From == "" || len(cfg.Mail.To) == 0) {
		return fmt.Errorf("%w: mail.from and mail.to are required when mail.host is set", ErrInvalid)
	}
	return nil
}
