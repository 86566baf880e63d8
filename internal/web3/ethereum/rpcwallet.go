package ethereum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"BaseCreator/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SendCallsVersion is the EIP-5792 request version sent with wallet_sendCalls.
const SendCallsVersion = "2.0.0"

// rpcCaller is the subset of *rpc.Client the wallet uses.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

type callArgs struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data,omitempty"`
	Value *hexutil.Big   `json:"value,omitempty"`
}

type txArgs struct {
	From common.Address `json:"from"`
	callArgs
}

type sendCallsArgs struct {
	Version        string         `json:"version"`
	ChainID        hexutil.Uint64 `json:"chainId"`
	From           common.Address `json:"from"`
	AtomicRequired bool           `json:"atomicRequired"`
	Calls          []callArgs     `json:"calls"`
}

type capabilityEntry struct {
	AtomicBatch *struct {
		Supported bool `json:"supported"`
	} `json:"atomicBatch,omitempty"`
	Atomic *struct {
		Status string `json:"status"`
	} `json:"atomic,omitempty"`
}

// RPCWallet is a wallet reached over JSON-RPC. It always submits single
// transactions and also implements the capability query and atomic batch
// extensions; whether the wallet honours them is decided by its answers.
type RPCWallet struct {
	client  rpcCaller
	from    common.Address
	chainID uint64
}

// NewRPCWallet binds a wallet endpoint to the account it signs for.
func NewRPCWallet(client rpcCaller, from common.Address, chainID uint64) (*RPCWallet, error) {
	if client == nil {
		return nil, errors.New("未提供钱包 RPC 客户端")
	}
	if chainID == 0 {
		return nil, errors.New("未配置目标链 ID")
	}
	return &RPCWallet{client: client, from: from, chainID: chainID}, nil
}

// From returns the account the wallet submits for.
func (w *RPCWallet) From() common.Address {
	return w.from
}

func toCallArgs(call web3.Call) callArgs {
	args := callArgs{To: call.To}
	if len(call.Data) > 0 {
		args.Data = hexutil.Bytes(common.CopyBytes(call.Data))
	}
	if call.Value != nil && call.Value.Sign() > 0 {
		args.Value = (*hexutil.Big)(call.ValueOrZero())
	}
	return args
}

// SendTransaction submits one call through eth_sendTransaction and returns
// the transaction hash.
func (w *RPCWallet) SendTransaction(ctx context.Context, call web3.Call) (string, error) {
	var hash common.Hash
	if err := w.client.CallContext(ctx, &hash, "eth_sendTransaction", txArgs{From: w.from, callArgs: toCallArgs(call)}); err != nil {
		return "", err
	}
	return hash.Hex(), nil
}

// Capabilities queries wallet_getCapabilities for the configured chain. Both
// the legacy atomicBatch and the newer atomic capability shapes are read.
func (w *RPCWallet) Capabilities(ctx context.Context) (web3.CapabilitySet, error) {
	var raw map[string]capabilityEntry
	if err := w.client.CallContext(ctx, &raw, "wallet_getCapabilities", w.from, []hexutil.Uint64{hexutil.Uint64(w.chainID)}); err != nil {
		return nil, err
	}

	set := make(web3.CapabilitySet, len(raw))
	for key, entry := range raw {
		chainID, err := parseChainKey(key)
		if err != nil {
			return nil, fmt.Errorf("无法解析能力声明中的链 ID %q: %w", key, err)
		}
		var caps web3.Capabilities
		if entry.AtomicBatch != nil {
			caps.AtomicBatch = entry.AtomicBatch.Supported
		}
		if entry.Atomic != nil {
			caps.AtomicStatus = entry.Atomic.Status
		}
		set[chainID] = caps
	}
	return set, nil
}

// SendCalls submits the batch through wallet_sendCalls with atomic execution
// required. The wallet's batch identifier is returned; both the object and
// the bare string result shapes are accepted.
func (w *RPCWallet) SendCalls(ctx context.Context, chainID uint64, calls web3.Batch) (string, error) {
	args := sendCallsArgs{
		Version:        SendCallsVersion,
		ChainID:        hexutil.Uint64(chainID),
		From:           w.from,
		AtomicRequired: true,
		Calls:          make([]callArgs, len(calls)),
	}
	for i, call := range calls {
		args.Calls[i] = toCallArgs(call)
	}

	var raw json.RawMessage
	if err := w.client.CallContext(ctx, &raw, "wallet_sendCalls", args); err != nil {
		return "", err
	}
	return decodeBatchID(raw)
}

func decodeBatchID(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil && id != "" {
		return id, nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("无法解析 wallet_sendCalls 返回值: %w", err)
	}
	if obj.ID == "" {
		return "", errors.New("wallet_sendCalls 未返回批次 ID")
	}
	return obj.ID, nil
}

func parseChainKey(key string) (uint64, error) {
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "0x") || strings.HasPrefix(key, "0X") {
		return strconv.ParseUint(key[2:], 16, 64)
	}
	return strconv.ParseUint(key, 10, 64)
}
