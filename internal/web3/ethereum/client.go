package ethereum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"BaseCreator/internal/web3/contract"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Config describes how to reach one EVM chain.
type Config struct {
	Name           string
	ChainID        uint64
	RPCURL         string
	FactoryAddress string
	Notes          string
}

// Client is the connection to one chain: the raw JSON-RPC client used as a
// wallet provider plus an ethclient for reads and local signing.
type Client struct {
	name    string
	notes   string
	chainID uint64
	factory common.Address

	mu  sync.Mutex
	rpc *gethrpc.Client
	eth *ethclient.Client
}

// NewClient dials the configured endpoint.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}
	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}
	return NewClientWithRPC(cfg, rpcClient)
}

// NewClientWithRPC wraps an existing RPC connection, such as an in-process
// one. The client takes ownership of it.
func NewClientWithRPC(cfg Config, rpcClient *gethrpc.Client) (*Client, error) {
	if rpcClient == nil {
		return nil, errors.New("未提供 RPC 客户端")
	}
	if cfg.ChainID == 0 {
		return nil, fmt.Errorf("链 %s 未配置 chain_id", cfg.Name)
	}
	var factory common.Address
	if addr := strings.TrimSpace(cfg.FactoryAddress); addr != "" {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("链 %s 的工厂合约地址无效: %s", cfg.Name, addr)
		}
		factory = common.HexToAddress(addr)
	}
	return &Client{
		name:    cfg.Name,
		notes:   cfg.Notes,
		chainID: cfg.ChainID,
		factory: factory,
		rpc:     rpcClient,
		eth:     ethclient.NewClient(rpcClient),
	}, nil
}

// Name returns the configured chain name.
func (c *Client) Name() string { return c.name }

// ChainID returns the configured chain ID.
func (c *Client) ChainID() uint64 { return c.chainID }

// Factory returns the token factory address, zero when none is configured.
func (c *Client) Factory() common.Address { return c.factory }

// Provider exposes the raw RPC client as a wallet provider for the session
// layer.
func (c *Client) Provider() *gethrpc.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rpc
}

// Eth returns the typed client for chain reads.
func (c *Client) Eth() *ethclient.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eth
}

// Wallet returns an EIP-5792 wallet submitting for from.
func (c *Client) Wallet(from common.Address) (*RPCWallet, error) {
	rpcClient := c.Provider()
	if rpcClient == nil {
		return nil, errors.New("链客户端已关闭")
	}
	return NewRPCWallet(rpcClient, from, c.chainID)
}

// FactoryReader reads the configured token factory.
func (c *Client) FactoryReader() (*contract.FactoryReader, error) {
	eth := c.Eth()
	if eth == nil {
		return nil, errors.New("链客户端已关闭")
	}
	return contract.NewFactoryReader(c.factory, eth)
}

// Close releases the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth != nil {
		c.eth.Close()
	}
	c.eth = nil
	c.rpc = nil
}
