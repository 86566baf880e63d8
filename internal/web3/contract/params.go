package contract

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// MaxSymbolLength bounds ticker symbols accepted by the factory front-end.
	MaxSymbolLength = 10
	// MaxDecimals is the largest decimals value an ERC-20 is created with.
	MaxDecimals = 18
)

// DefaultCreationFee is 0.01 ether in wei, used when the on-chain fee has not
// been read.
var DefaultCreationFee = big.NewInt(10_000_000_000_000_000)

// CreateTokenParams are the arguments of createMemeToken.
type CreateTokenParams struct {
	Name        string
	Symbol      string
	TotalSupply *big.Int
	Decimals    uint8
	LogoURL     string
	BannerURL   string
}

// Validate applies the input rules the factory front-end enforces.
func (p CreateTokenParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("代币名称不能为空")
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return errors.New("代币符号不能为空")
	}
	if len(p.Symbol) > MaxSymbolLength {
		return fmt.Errorf("代币符号长度不能超过 %d 个字符", MaxSymbolLength)
	}
	if p.TotalSupply == nil || p.TotalSupply.Sign() <= 0 {
		return errors.New("代币总量必须大于 0")
	}
	if p.Decimals > MaxDecimals {
		return fmt.Errorf("代币精度不能超过 %d", MaxDecimals)
	}
	return nil
}

// Args returns the positional ABI arguments in declaration order.
func (p CreateTokenParams) Args() []interface{} {
	return []interface{}{p.Name, p.Symbol, p.TotalSupply, p.Decimals, p.LogoURL, p.BannerURL}
}

// ParseEther converts a decimal ether amount such as "0.01" into wei.
func ParseEther(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("金额不能为空")
	}
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("无法解析金额: %s", amount)
	}
	if r.Sign() < 0 {
		return nil, fmt.Errorf("金额不能为负数: %s", amount)
	}
	r.Mul(r, new(big.Rat).SetInt(big.NewInt(1_000_000_000_000_000_000)))
	if !r.IsInt() {
		return nil, fmt.Errorf("金额精度超过 wei: %s", amount)
	}
	return new(big.Int).Set(r.Num()), nil
}
