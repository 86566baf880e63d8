package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"BaseCreator/pkg/logger"
)

// EnvPath 是指定配置文件路径的环境变量。
const EnvPath = "BASECREATOR_CONFIG"

// DefaultPath 是未设置环境变量时使用的配置文件。
var DefaultPath = filepath.Join("configs", "basecreator.json")

// Config 描述客户端启动时加载的全部配置。
type Config struct {
	App     AppConfig     `json:"app"`
	Storage StorageConfig `json:"storage"`
	Web3    Web3Config    `json:"web3"`
	Events  EventsConfig  `json:"events"`
	Logging logger.Config `json:"logging"`
}

// AppConfig 对应会话初始化参数。
type AppConfig struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	ChainID uint64 `json:"chain_id"`
}

// StorageConfig 选择会话记录的持久化后端。
type StorageConfig struct {
	Driver string      `json:"driver"`
	Path   string      `json:"path"`
	Key    string      `json:"key"`
	Redis  RedisConfig `json:"redis"`
	MySQL  MySQLConfig `json:"mysql"`
}

// RedisConfig 描述 Redis 连接，存储与事件发布共用。
type RedisConfig struct {
	Address    string `json:"address"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	KeyPrefix  string `json:"key_prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// MySQLConfig 描述 MySQL 连接池参数。
type MySQLConfig struct {
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `json:"conn_max_idle_time_seconds"`
}

// Web3Config 包含链端点、钱包与工厂合约配置。
type Web3Config struct {
	ChainConfig    string `json:"chain_config"`
	DefaultChain   string `json:"default_chain"`
	RPCURL         string `json:"rpc_url"`
	HostRPCURL     string `json:"host_rpc_url"`
	WalletRPCURL   string `json:"wallet_rpc_url"`
	PrivateKeyEnv  string `json:"private_key_env"`
	FactoryAddress string `json:"factory_address"`
	CreationFeeWei string `json:"creation_fee_wei"`
}

// EventsConfig 选择会话与批次事件的发布后端。
type EventsConfig struct {
	Driver   string         `json:"driver"`
	Channel  string         `json:"channel"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RabbitMQConfig 描述 RabbitMQ 队列参数。
type RabbitMQConfig struct {
	URL     string `json:"url"`
	Queue   string `json:"queue"`
	Durable bool   `json:"durable"`
}

// PathFromEnv 返回环境变量指定的配置路径，未设置时返回默认路径。
func PathFromEnv() string {
	if path := strings.TrimSpace(os.Getenv(EnvPath)); path != "" {
		return path
	}
	return DefaultPath
}

// Load 解析指定路径的 JSON 配置文件并补全默认值。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(content, filepath.Dir(path))
}

// Parse 解析 JSON 配置；相对路径以 baseDir 为基准。
func Parse(content []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults(baseDir)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回仅包含默认值的配置。
func Default(baseDir string) *Config {
	var cfg Config
	cfg.applyDefaults(baseDir)
	return &cfg
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.App.Name == "" {
		c.App.Name = "BaseCreator"
	}
	if c.App.ChainID == 0 {
		c.App.ChainID = 8453
	}

	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = "leveldb"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = "minikit_user"
	}
	c.Storage.Path = resolve(baseDir, c.Storage.Path, filepath.Join("data", "session"))
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "basecreator:"
	}

	if c.Web3.ChainConfig != "" {
		c.Web3.ChainConfig = resolve(baseDir, c.Web3.ChainConfig, "")
	}
	if c.Web3.PrivateKeyEnv == "" {
		c.Web3.PrivateKeyEnv = "BASECREATOR_PRIVATE_KEY"
	}
	if c.Web3.CreationFeeWei == "" {
		c.Web3.CreationFeeWei = "10000000000000000"
	}

	c.Events.Driver = strings.ToLower(strings.TrimSpace(c.Events.Driver))
	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}
	if c.Events.Channel == "" {
		c.Events.Channel = "basecreator:events"
	}
	if c.Events.RabbitMQ.Queue == "" {
		c.Events.RabbitMQ.Queue = "basecreator.events"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Audit.Enabled {
		c.Logging.Audit.Path = resolve(baseDir, c.Logging.Audit.Path, filepath.Join("logs", "audit.log"))
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "leveldb", "redis", "mysql", "memory":
	default:
		return fmt.Errorf("不支持的存储驱动: %s", c.Storage.Driver)
	}
	switch c.Events.Driver {
	case "none", "memory", "redis", "rabbitmq":
	default:
		return fmt.Errorf("不支持的事件驱动: %s", c.Events.Driver)
	}
	if _, err := c.CreationFee(); err != nil {
		return err
	}
	return nil
}

// CreationFee 返回配置的创建费用（wei）。
func (c *Config) CreationFee() (*big.Int, error) {
	fee, ok := new(big.Int).SetString(strings.TrimSpace(c.Web3.CreationFeeWei), 10)
	if !ok || fee.Sign() < 0 {
		return nil, fmt.Errorf("创建费用配置无效: %q", c.Web3.CreationFeeWei)
	}
	return fee, nil
}

func resolve(baseDir, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
