package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Encoder packs a method call into calldata. go-ethereum's abi.ABI satisfies
// it directly.
type Encoder interface {
	Pack(name string, args ...interface{}) ([]byte, error)
}

// FactoryJSON is the ABI of the meme token factory contract.
const FactoryJSON = `[
  {
    "inputs": [
      {"internalType": "string", "name": "name", "type": "string"},
      {"internalType": "string", "name": "symbol", "type": "string"},
      {"internalType": "uint256", "name": "totalSupply", "type": "uint256"},
      {"internalType": "uint8", "name": "decimals", "type": "uint8"},
      {"internalType": "string", "name": "logoUrl", "type": "string"},
      {"internalType": "string", "name": "bannerUrl", "type": "string"}
    ],
    "name": "createMemeToken",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "CREATION_FEE",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "address", "name": "creator", "type": "address"}],
    "name": "getCreatorTokens",
    "outputs": [
      {
        "components": [
          {"internalType": "address", "name": "tokenAddress", "type": "address"},
          {"internalType": "address", "name": "creator", "type": "address"},
          {"internalType": "string", "name": "name", "type": "string"},
          {"internalType": "string", "name": "symbol", "type": "string"},
          {"internalType": "uint256", "name": "totalSupply", "type": "uint256"},
          {"internalType": "uint256", "name": "createdAt", "type": "uint256"},
          {"internalType": "string", "name": "logoUrl", "type": "string"},
          {"internalType": "string", "name": "bannerUrl", "type": "string"}
        ],
        "internalType": "struct MemeTokenFactory.TokenInfo[]",
        "name": "",
        "type": "tuple[]"
      }
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

// ERC20ApproveJSON is the subset of the ERC-20 ABI needed for allowances.
const ERC20ApproveJSON = `[
  {
    "name": "approve",
    "type": "function",
    "inputs": [
      {"name": "spender", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}],
    "stateMutability": "nonpayable"
  }
]`

const (
	MethodCreateToken   = "createMemeToken"
	MethodCreationFee   = "CREATION_FEE"
	MethodCreatorTokens = "getCreatorTokens"
	MethodApprove       = "approve"
)

var (
	factoryABI = mustParse(FactoryJSON)
	erc20ABI   = mustParse(ERC20ApproveJSON)
)

// FactoryABI returns the parsed factory ABI.
func FactoryABI() abi.ABI { return factoryABI }

// ERC20ABI returns the parsed ERC-20 approve ABI.
func ERC20ABI() abi.ABI { return erc20ABI }

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("contract: invalid embedded ABI: " + err.Error())
	}
	return parsed
}
