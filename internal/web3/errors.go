package web3

import "errors"

// CodeUserRejected is the EIP-1193 error code a wallet returns when the user
// declines a request.
const CodeUserRejected = 4001

// rpcError matches JSON-RPC errors that carry a numeric code, such as those
// produced by go-ethereum's rpc client.
type rpcError interface {
	error
	ErrorCode() int
}

// IsUserRejection reports whether err is a wallet-side user rejection.
func IsUserRejection(err error) bool {
	var re rpcError
	if errors.As(err, &re) {
		return re.ErrorCode() == CodeUserRejected
	}
	return false
}
