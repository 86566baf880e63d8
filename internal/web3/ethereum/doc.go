// Package ethereum connects the batch and session layers to EVM chains. It
// provides a JSON-RPC wallet speaking EIP-5792 and EIP-1193, a locally keyed
// wallet that signs EIP-1559 transactions, and per-chain clients built from
// chain definitions.
package ethereum
