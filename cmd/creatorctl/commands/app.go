package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"BaseCreator/internal/config"
	xerrors "BaseCreator/internal/errors"
	"BaseCreator/internal/events"
	"BaseCreator/internal/session"
	leveldbstore "BaseCreator/internal/storage/leveldb"
	mysqlstore "BaseCreator/internal/storage/mysql"
	redisstore "BaseCreator/internal/storage/redis"
	"BaseCreator/internal/web3"
	"BaseCreator/internal/web3/ethereum"
	"BaseCreator/internal/web3/provider"
	"BaseCreator/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// app holds everything built by the composition root for one process.
type app struct {
	configPath string
	out        io.Writer

	cfg       *config.Config
	publisher events.Publisher
	root      *session.Root
	registry  *provider.Registry
	walletRPC *gethrpc.Client
	local     *ethereum.LocalWallet
	closers   []func() error
	log       *slog.Logger
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	a.log = logger.Named("creatorctl")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	a.publisher, err = openPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.publisher.Close)

	opts := []session.Option{
		session.WithStorageKey(cfg.Storage.Key),
		session.WithPublisher(a.publisher),
	}
	if url := strings.TrimSpace(cfg.Web3.HostRPCURL); url != "" {
		host, err := gethrpc.DialContext(ctx, url)
		if err != nil {
			return fmt.Errorf("连接宿主钱包失败: %w", err)
		}
		a.closers = append(a.closers, func() error { host.Close(); return nil })
		opts = append(opts, session.WithHost(host))
	}
	walletProvider, err := a.walletProvider(ctx)
	if err != nil {
		return err
	}
	if walletProvider != nil {
		opts = append(opts, session.WithWalletProvider(walletProvider))
	}

	a.root = session.NewRoot(store, opts...)
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	path := a.configPath
	if path == "" {
		path = config.PathFromEnv()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default("."), nil
		}
	}
	return config.Load(path)
}

// walletProvider picks the provider ConnectWallet talks to: a remote wallet
// endpoint when configured, otherwise a local key from the environment.
func (a *app) walletProvider(ctx context.Context) (session.Provider, error) {
	if url := strings.TrimSpace(a.cfg.Web3.WalletRPCURL); url != "" {
		client, err := gethrpc.DialContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("连接钱包 RPC 失败: %w", err)
		}
		a.walletRPC = client
		a.closers = append(a.closers, func() error { client.Close(); return nil })
		return client, nil
	}

	hexKey := strings.TrimSpace(os.Getenv(a.cfg.Web3.PrivateKeyEnv))
	if hexKey == "" {
		return nil, nil
	}
	chain, err := a.chain(ctx)
	if err != nil {
		return nil, err
	}
	local, err := ethereum.NewLocalWalletFromHex(ctx, chain.Eth(), hexKey)
	if err != nil {
		return nil, err
	}
	a.local = local
	return local, nil
}

// chain returns the default chain client, dialing the registry on first use.
func (a *app) chain(ctx context.Context) (*ethereum.Client, error) {
	if a.registry == nil {
		registry, err := provider.NewRegistry(ctx, a.cfg.Web3, a.cfg.App.ChainID)
		if err != nil {
			return nil, err
		}
		a.registry = registry
		a.closers = append(a.closers, func() error { registry.Close(); return nil })
	}
	return a.registry.DefaultClient()
}

// sender returns the wallet that submits for the bound account. A local key
// only signs for its own address.
func (a *app) sender(from string) (web3.TransactionSender, error) {
	switch {
	case a.walletRPC != nil:
		return ethereum.NewRPCWallet(a.walletRPC, common.HexToAddress(from), a.cfg.App.ChainID)
	case a.local != nil:
		if signer := a.local.Address(); !strings.EqualFold(from, signer.Hex()) {
			return nil, xerrors.New(xerrors.CodeInvalidArgument,
				fmt.Sprintf("本地私钥账户 %s 与会话绑定账户 %s 不一致，请先断开会话后重新连接", signer.Hex(), from))
		}
		return a.local, nil
	default:
		return nil, errors.New("未配置钱包：请设置 web3.wallet_rpc_url 或私钥环境变量")
	}
}

func (a *app) manager(ctx context.Context) (*session.Manager, error) {
	return a.root.Initialize(ctx, session.Config{
		AppName: a.cfg.App.Name,
		AppURL:  a.cfg.App.URL,
		ChainID: a.cfg.App.ChainID,
	})
}

func (a *app) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Warn("释放资源失败", slog.Any("error", err))
		}
	}
	a.closers = nil
	_ = logger.Sync()
}

func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return session.NewMemoryStore(), nil
	case "leveldb":
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, fmt.Errorf("创建会话目录失败: %w", err)
		}
		return leveldbstore.Open(cfg.Storage.Path)
	case "redis":
		r := cfg.Storage.Redis
		return redisstore.Open(ctx, redisstore.Config{
			Address:   r.Address,
			Password:  r.Password,
			DB:        r.DB,
			KeyPrefix: r.KeyPrefix,
			TTL:       time.Duration(r.TTLSeconds) * time.Second,
		})
	case "mysql":
		m := cfg.Storage.MySQL
		return mysqlstore.Open(ctx, mysqlstore.Config{
			DSN:             m.DSN,
			MaxOpenConns:    m.MaxOpenConns,
			MaxIdleConns:    m.MaxIdleConns,
			ConnMaxLifetime: time.Duration(m.ConnMaxLifetimeSeconds) * time.Second,
			ConnMaxIdleTime: time.Duration(m.ConnMaxIdleTimeSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Storage.Driver)
	}
}

func openPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "none":
		return events.Nop{}, nil
	case "memory":
		return events.NewMemoryPublisher(), nil
	case "redis":
		r := cfg.Storage.Redis
		return events.NewRedisPublisher(ctx, events.RedisConfig{
			Address:  r.Address,
			Password: r.Password,
			DB:       r.DB,
			Channel:  cfg.Events.Channel,
		})
	case "rabbitmq":
		q := cfg.Events.RabbitMQ
		return events.NewRabbitMQPublisher(events.RabbitMQConfig{URL: q.URL, Queue: q.Queue, Durable: q.Durable})
	default:
		return nil, fmt.Errorf("不支持的事件驱动: %s", cfg.Events.Driver)
	}
}
