// Package provider builds the per-chain clients named in the chain
// definitions and hands out the default one.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"BaseCreator/internal/config"
	"BaseCreator/internal/web3"
	"BaseCreator/internal/web3/ethereum"
)

// DefaultChainName is used for the chain built from web3.rpc_url when no
// chain definitions are configured.
const DefaultChainName = "default"

type dialFunc func(ctx context.Context, cfg ethereum.Config) (*ethereum.Client, error)

// Registry manages a set of chain clients keyed by human readable names.
type Registry struct {
	defaultChain string
	clients      map[string]*ethereum.Client
}

// NewRegistry loads chain definitions and dials every configured chain.
// chainID applies to the fallback chain built from cfg.RPCURL.
func NewRegistry(ctx context.Context, cfg config.Web3Config, chainID uint64) (*Registry, error) {
	defs, err := web3.LoadChainDefinitions(cfg.ChainConfig)
	if err != nil {
		return nil, err
	}
	return build(ctx, defs, cfg, chainID, ethereum.NewClient)
}

func build(ctx context.Context, defs web3.ChainDefinitions, cfg config.Web3Config, chainID uint64, dial dialFunc) (*Registry, error) {
	clients := make(map[string]*ethereum.Client)
	closeAll := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	for name, chain := range defs.Chains {
		chainType := strings.ToLower(strings.TrimSpace(chain.Type))
		if chainType != "" && chainType != "evm" {
			closeAll()
			return nil, fmt.Errorf("链 %s 使用了不支持的类型 %s", name, chain.Type)
		}
		factory := chain.FactoryAddress
		if factory == "" {
			factory = cfg.FactoryAddress
		}
		client, err := dial(ctx, ethereum.Config{
			Name:           name,
			ChainID:        chain.ChainID,
			RPCURL:         chain.RPCURL,
			FactoryAddress: factory,
			Notes:          chain.Description,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("初始化链 %s 失败: %w", name, err)
		}
		clients[name] = client
	}

	defaultChain := cfg.DefaultChain
	if len(clients) == 0 && strings.TrimSpace(cfg.RPCURL) != "" {
		client, err := dial(ctx, ethereum.Config{
			Name:           DefaultChainName,
			ChainID:        chainID,
			RPCURL:         cfg.RPCURL,
			FactoryAddress: cfg.FactoryAddress,
		})
		if err != nil {
			return nil, err
		}
		clients[DefaultChainName] = client
		if defaultChain == "" {
			defaultChain = DefaultChainName
		}
	}
	if len(clients) == 0 {
		return nil, errors.New("未配置任何链的 RPC 端点")
	}

	if defaultChain == "" {
		defaultChain = firstByChainID(clients, chainID)
	}
	if _, ok := clients[defaultChain]; !ok {
		closeAll()
		return nil, fmt.Errorf("默认链 %s 未在配置中找到", defaultChain)
	}
	return &Registry{defaultChain: defaultChain, clients: clients}, nil
}

// firstByChainID prefers the chain matching the app chain ID, then the
// alphabetically first name.
func firstByChainID(clients map[string]*ethereum.Client, chainID uint64) string {
	names := sortedNames(clients)
	for _, name := range names {
		if clients[name].ChainID() == chainID {
			return name
		}
	}
	return names[0]
}

func sortedNames(clients map[string]*ethereum.Client) []string {
	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultClient returns the client configured as default chain.
func (r *Registry) DefaultClient() (*ethereum.Client, error) {
	if r == nil {
		return nil, errors.New("未初始化的链客户端注册表")
	}
	client, ok := r.clients[r.defaultChain]
	if !ok {
		return nil, fmt.Errorf("默认链 %s 未在注册表中", r.defaultChain)
	}
	return client, nil
}

// Client returns the chain client identified by name.
func (r *Registry) Client(name string) (*ethereum.Client, bool) {
	if r == nil {
		return nil, false
	}
	client, ok := r.clients[name]
	return client, ok
}

// Chains returns the list of registered chain names.
func (r *Registry) Chains() []string {
	if r == nil {
		return nil
	}
	return sortedNames(r.clients)
}

// Close releases all clients managed by the registry.
func (r *Registry) Close() {
	if r == nil {
		return
	}
	for name, client := range r.clients {
		client.Close()
		delete(r.clients, name)
	}
}
