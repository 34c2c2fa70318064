package control

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/vietddude/nodewatch/internal/core/config"
	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain/evm"
	"github.com/vietddude/nodewatch/internal/infra/chain/syscoin"
	"github.com/vietddude/nodewatch/internal/infra/mail"
	"github.com/vietddude/nodewatch/internal/infra/process"
	redisclient "github.com/vietddude/nodewatch/internal/infra/redis"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
	"github.com/vietddude/nodewatch/internal/infra/storage"
	"github.com/vietddude/nodewatch/internal/infra/storage/memory"
	"github.com/vietddude/nodewatch/internal/infra/storage/sqldb"
	"github.com/vietddude/nodewatch/internal/watchdog/health"
	"github.com/vietddude/nodewatch/internal/watchdog/notify"
	"github.com/vietddude/nodewatch/internal/watchdog/uptime"
)

// NewAggregator wires the process probe and both chain probes from cfg.
func NewAggregator(cfg config.AppConfig) *health.Aggregator {
	sysLocal := rpcClient(cfg.Syscoin.Local, "syscoind-local", cfg.Syscoin)
	sysRemote := rpcClient(cfg.Syscoin.Remote, "syscoind-remote", cfg.Syscoin)
	ethLocal := rpcClient(cfg.Ethereum.Local, "sysgeth-local", cfg.Ethereum)
	ethRemote := rpcClient(cfg.Ethereum.Remote, "sysgeth-remote", cfg.Ethereum)

	var sysProbe, ethProbe health.ChainProbe
	if sysLocal != nil && sysRemote != nil {
		sysProbe = syscoin.NewSyscoinProbe(sysLocal, sysRemote, cfg.Syscoin.MaxLag)
	} else {
		slog.Warn("syscoin endpoints not configured, chain A will be reported inconclusive")
	}
	if ethLocal != nil && ethRemote != nil {
		ethProbe = evm.NewEVMProbe(domain.ChainEthereum, ethLocal, ethRemote, cfg.Ethereum.MaxLag)
	} else {
		slog.Warn("ethereum endpoints not configured, chain B will be reported inconclusive")
	}

	return health.NewAggregator(
		process.NewProbe(cfg.Processes),
		health.ProbeConfig{Probe: sysProbe, Timeout: cfg.Syscoin.Timeout},
		health.ProbeConfig{Probe: ethProbe, Timeout: cfg.Ethereum.Timeout},
	)
}

func rpcClient(ep config.EndpointConfig, fallbackName string, chainCfg config.ChainConfig) *rpc.Client {
	if ep.URL == "" {
		return nil
	}
	name := ep.Name
	if name == "" {
		name = fallbackName
	}
	return rpc.NewClient(rpc.NewHTTPProvider(name, ep.URL, chainCfg.Timeout))
}

// OpenJournal opens the configured event journal. The returned DB is nil
// for the memory driver.
func OpenJournal(ctx context.Context, cfg config.HistoryConfig) (storage.HistoryRepository, *sqldb.DB, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.NewHistoryRepo(), nil, nil
	case sqldb.DriverSQLite, sqldb.DriverPostgres:
		db, err := sqldb.NewDB(ctx, sqldb.Config{
			Driver:   cfg.Driver,
			DSN:      cfg.DSN,
			MaxConns: cfg.MaxConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init journal: %w", err)
		}
		return sqldb.NewHistoryRepo(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
}

// NewSender returns the SMTP sender, or a log-only sender when no host is configured.
func NewSender(cfg config.MailConfig) (notify.Sender, error) {
	if cfg.Host == "" {
		slog.Warn("mail.host not set, notifications will only be logged")
		return notify.NewLogSender(), nil
	}
	sender, err := mail.NewSMTPSender(mail.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		To:       cfg.To,
		TLS:      cfg.TLS,
	})
	if err != nil {
		return nil, err
	}
	return sender, nil
}

// NewUptimeStore returns the configured uptime store. The Redis client is
// returned so the caller can close it; it is nil for the file backend.
func NewUptimeStore(cfg config.UptimeConfig) (uptime.Store, *redisclient.Client, error) {
	switch cfg.Backend {
	case "redis":
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		return redisclient.NewUptimeStore(client, host), client, nil
	default:
		return uptime.NewFileStore(cfg.Path), nil, nil
	}
}
