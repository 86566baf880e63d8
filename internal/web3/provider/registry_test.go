package provider

import (
	"context"
	"errors"
	"testing"

	"BaseCreator/internal/config"
	"BaseCreator/internal/web3"
	"BaseCreator/internal/web3/ethereum"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

type dialRecorder struct {
	configs []ethereum.Config
	fail    string
}

func (d *dialRecorder) dial(_ context.Context, cfg ethereum.Config) (*ethereum.Client, error) {
	if cfg.Name == d.fail {
		return nil, errors.New("dial refused")
	}
	d.configs = append(d.configs, cfg)
	return ethereum.NewClientWithRPC(cfg, gethrpc.DialInProc(gethrpc.NewServer()))
}

func mustDefs(t *testing.T, yaml string) web3.ChainDefinitions {
	t.Helper()
	defs, err := web3.ParseChainDefinitions([]byte(yaml))
	if err != nil {
		t.Fatalf("parse chains: %v", err)
	}
	return defs
}

const chainsYAML = `
chains:
  base:
    chain_id: 8453
    rpc_url: https://mainnet.base.org
    factory_address: "0x00000000000000000000000000000000000000fa"
  base-sepolia:
    type: evm
    chain_id: 84532
    rpc_url: https://sepolia.base.org
`

func TestRegistryPrefersAppChain(t *testing.T) {
	rec := &dialRecorder{}
	cfg := config.Web3Config{FactoryAddress: "0x00000000000000000000000000000000000000fb"}
	reg, err := build(context.Background(), mustDefs(t, chainsYAML), cfg, 8453, rec.dial)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer reg.Close()

	client, err := reg.DefaultClient()
	if err != nil {
		t.Fatalf("default client: %v", err)
	}
	if client.Name() != "base" || client.ChainID() != 8453 {
		t.Fatalf("unexpected default %s/%d", client.Name(), client.ChainID())
	}
	if client.Factory() != common.HexToAddress("0x00000000000000000000000000000000000000fa") {
		t.Fatalf("chain factory should win, got %s", client.Factory().Hex())
	}
	sepolia, ok := reg.Client("base-sepolia")
	if !ok || sepolia.Factory() != common.HexToAddress(cfg.FactoryAddress) {
		t.Fatal("expected global factory to fill missing chain factory")
	}
	if names := reg.Chains(); len(names) != 2 || names[0] != "base" || names[1] != "base-sepolia" {
		t.Fatalf("unexpected chains %v", names)
	}
}

func TestRegistryFallsBackToRPCURL(t *testing.T) {
	rec := &dialRecorder{}
	cfg := config.Web3Config{RPCURL: "http://127.0.0.1:8545"}
	reg, err := build(context.Background(), mustDefs(t, "chains: {}"), cfg, 31337, rec.dial)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer reg.Close()

	client, err := reg.DefaultClient()
	if err != nil || client.Name() != DefaultChainName || client.ChainID() != 31337 {
		t.Fatalf("unexpected fallback client err=%v", err)
	}
}

func TestRegistryErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := build(ctx, mustDefs(t, "chains: {}"), config.Web3Config{}, 1, (&dialRecorder{}).dial); err == nil {
		t.Fatal("expected missing endpoints to fail")
	}
	if _, err := build(ctx, mustDefs(t, chainsYAML), config.Web3Config{DefaultChain: "optimism"}, 1, (&dialRecorder{}).dial); err == nil {
		t.Fatal("expected unknown default chain to fail")
	}
	if _, err := build(ctx, mustDefs(t, chainsYAML), config.Web3Config{}, 1, (&dialRecorder{fail: "base"}).dial); err == nil {
		t.Fatal("expected dial failure to propagate")
	}
	solana := "chains:\n  sol:\n    type: solana\n    chain_id: 101\n    rpc_url: x\n"
	if _, err := build(ctx, mustDefs(t, solana), config.Web3Config{}, 1, (&dialRecorder{}).dial); err == nil {
		t.Fatal("expected unsupported chain type to fail")
	}

	var nilRegistry *Registry
	if _, err := nilRegistry.DefaultClient(); err == nil {
		t.Fatal("expected nil registry to fail")
	}
}
