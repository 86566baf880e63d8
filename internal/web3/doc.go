// Package web3 holds the chain-facing vocabulary shared by the session and
// batch layers: on-chain calls, ordered batches, per-chain wallet
// capabilities and the wallet handle contract, plus multi-chain configuration
// loaded from YAML. Concrete JSON-RPC wallets live in web3/ethereum and
// contract ABIs in web3/contract.
package web3
