package web3

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is one on-chain interaction: a target, an optional encoded payload and
// an optional native-currency amount.
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// ValueOrZero returns the call value, treating nil as zero.
func (c Call) ValueOrZero() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.Value)
}

// Batch is an ordered list of calls. Order is significant end-to-end.
type Batch []Call

// Capabilities is the feature set a wallet declares for one chain.
type Capabilities struct {
	// AtomicBatch mirrors the legacy EIP-5792 `atomicBatch.supported` flag.
	AtomicBatch bool
	// AtomicStatus mirrors the newer `atomic.status` field
	// ("supported", "ready" or "unsupported").
	AtomicStatus string
}

// SupportsAtomic reports whether the wallet can apply a batch atomically.
func (c Capabilities) SupportsAtomic() bool {
	if c.AtomicBatch {
		return true
	}
	return c.AtomicStatus == "supported" || c.AtomicStatus == "ready"
}

// CapabilitySet maps chain IDs to the capabilities declared for them.
type CapabilitySet map[uint64]Capabilities

// TransactionSender submits a single call as an independent transaction and
// returns the wallet's reference for it. Every wallet must provide it.
type TransactionSender interface {
	SendTransaction(ctx context.Context, call Call) (string, error)
}

// CapabilityQuerier is the optional capability-query extension.
type CapabilityQuerier interface {
	Capabilities(ctx context.Context) (CapabilitySet, error)
}

// BatchSubmitter is the optional atomic multi-call extension.
type BatchSubmitter interface {
	SendCalls(ctx context.Context, chainID uint64, calls Batch) (string, error)
}

// Wallet is the handle the executor works with. Querier and Batcher are nil
// when the underlying wallet lacks the respective extension.
type Wallet struct {
	Sender  TransactionSender
	Querier CapabilityQuerier
	Batcher BatchSubmitter
}

// NewWallet builds a handle from a sender, picking up the optional extensions
// it implements.
func NewWallet(sender TransactionSender) Wallet {
	w := Wallet{Sender: sender}
	if q, ok := sender.(CapabilityQuerier); ok {
		w.Querier = q
	}
	if b, ok := sender.(BatchSubmitter); ok {
		w.Batcher = b
	}
	return w
}
