package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"BaseCreator/internal/web3"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend is the chain access a LocalWallet needs. *ethclient.Client and the
// simulated backend client satisfy it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*coretypes.Header, error)
	EstimateGas(ctx context.Context, msg gethcore.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *coretypes.Transaction) error
}

// LocalWallet signs EIP-1559 transactions with a private key held in process
// and submits them one at a time. It has no atomic batching, so executions
// through it always take the sequential path.
type LocalWallet struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	signer  coretypes.Signer

	mu        sync.Mutex
	nextNonce *uint64
}

// NewLocalWallet binds key to backend, reading the chain ID once.
func NewLocalWallet(ctx context.Context, backend Backend, key *ecdsa.PrivateKey) (*LocalWallet, error) {
	if backend == nil {
		return nil, errors.New("未提供链访问后端")
	}
	if key == nil {
		return nil, errors.New("未提供签名私钥")
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取链 ID 失败: %w", err)
	}
	return &LocalWallet{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		signer:  coretypes.LatestSignerForChainID(chainID),
	}, nil
}

// NewLocalWalletFromHex parses a hex encoded private key, with or without
// the 0x prefix.
func NewLocalWalletFromHex(ctx context.Context, backend Backend, hexKey string) (*LocalWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("解析私钥失败: %w", err)
	}
	return NewLocalWallet(ctx, backend, key)
}

// Address returns the signing account.
func (w *LocalWallet) Address() common.Address {
	return w.from
}

// ChainID returns the chain the wallet signs for.
func (w *LocalWallet) ChainID() uint64 {
	return w.chainID.Uint64()
}

// SendTransaction signs call as a dynamic fee transaction and submits it.
func (w *LocalWallet) SendTransaction(ctx context.Context, call web3.Call) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	nonce, err := w.nonce(ctx)
	if err != nil {
		return "", err
	}
	tip, err := w.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("获取小费建议失败: %w", err)
	}
	head, err := w.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("获取最新区块头失败: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	to := call.To
	value := call.ValueOrZero()
	gas, err := w.backend.EstimateGas(ctx, gethcore.CallMsg{
		From:      w.from,
		To:        &to,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Value:     value,
		Data:      call.Data,
	})
	if err != nil {
		return "", fmt.Errorf("估算 Gas 失败: %w", err)
	}

	tx, err := coretypes.SignTx(coretypes.NewTx(&coretypes.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      common.CopyBytes(call.Data),
	}), w.signer, w.key)
	if err != nil {
		return "", fmt.Errorf("签名交易失败: %w", err)
	}
	if err := w.backend.SendTransaction(ctx, tx); err != nil {
		return "", err
	}

	next := nonce + 1
	w.nextNonce = &next
	return tx.Hash().Hex(), nil
}

// nonce returns the larger of the node's pending nonce and the next nonce
// this wallet handed out, so back-to-back sends never collide.
func (w *LocalWallet) nonce(ctx context.Context) (uint64, error) {
	pending, err := w.backend.PendingNonceAt(ctx, w.from)
	if err != nil {
		return 0, fmt.Errorf("获取 nonce 失败: %w", err)
	}
	if w.nextNonce != nil && *w.nextNonce > pending {
		return *w.nextNonce, nil
	}
	return pending, nil
}

// CallContext answers the account requests of a wallet provider so the
// session layer can bind the local account: eth_accounts and
// eth_requestAccounts return the signing address, eth_chainId the chain.
func (w *LocalWallet) CallContext(_ context.Context, result interface{}, method string, _ ...interface{}) error {
	switch method {
	case "eth_accounts", "eth_requestAccounts":
		out, ok := result.(*[]string)
		if !ok {
			return fmt.Errorf("%s 需要 *[]string 作为结果类型", method)
		}
		*out = []string{w.from.Hex()}
		return nil
	case "eth_chainId":
		out, ok := result.(*hexutil.Big)
		if !ok {
			return fmt.Errorf("%s 需要 *hexutil.Big 作为结果类型", method)
		}
		*out = hexutil.Big(*new(big.Int).Set(w.chainID))
		return nil
	default:
		return fmt.Errorf("本地钱包不支持方法 %s", method)
	}
}
