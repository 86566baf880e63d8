package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// ContractCaller executes read-only contract calls. ethclient.Client and the
// simulated backend client both satisfy it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg gethcore.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FactoryReader reads view functions of the token factory.
type FactoryReader struct {
	address common.Address
	caller  ContractCaller
}

// NewFactoryReader binds a reader to the factory at address.
func NewFactoryReader(address common.Address, caller ContractCaller) (*FactoryReader, error) {
	if address == (common.Address{}) {
		return nil, errors.New("未配置工厂合约地址")
	}
	if caller == nil {
		return nil, errors.New("未提供合约调用后端")
	}
	return &FactoryReader{address: address, caller: caller}, nil
}

// CreationFee returns the fee in wei the factory charges per token.
func (r *FactoryReader) CreationFee(ctx context.Context) (*big.Int, error) {
	input, err := factoryABI.Pack(MethodCreationFee)
	if err != nil {
		return nil, fmt.Errorf("编码 CREATION_FEE 调用失败: %w", err)
	}
	output, err := r.caller.CallContract(ctx, gethcore.CallMsg{To: &r.address, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("读取创建费用失败: %w", err)
	}
	values, err := factoryABI.Unpack(MethodCreationFee, output)
	if err != nil {
		return nil, fmt.Errorf("解析创建费用失败: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("创建费用返回值数量异常: %d", len(values))
	}
	fee, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("创建费用类型异常: %T", values[0])
	}
	return fee, nil
}

// TokenInfo is one entry of getCreatorTokens. Field order follows the
// contract struct.
type TokenInfo struct {
	TokenAddress common.Address `abi:"tokenAddress"`
	Creator      common.Address `abi:"creator"`
	Name         string         `abi:"name"`
	Symbol       string         `abi:"symbol"`
	TotalSupply  *big.Int       `abi:"totalSupply"`
	CreatedAt    *big.Int       `abi:"createdAt"`
	LogoURL      string         `abi:"logoUrl"`
	BannerURL    string         `abi:"bannerUrl"`
}

// CreatorTokens lists the tokens the factory recorded for creator.
func (r *FactoryReader) CreatorTokens(ctx context.Context, creator common.Address) ([]TokenInfo, error) {
	input, err := factoryABI.Pack(MethodCreatorTokens, creator)
	if err != nil {
		return nil, fmt.Errorf("编码 getCreatorTokens 调用失败: %w", err)
	}
	output, err := r.caller.CallContract(ctx, gethcore.CallMsg{To: &r.address, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("读取创建者代币列表失败: %w", err)
	}
	var tokens []TokenInfo
	if err := factoryABI.UnpackIntoInterface(&tokens, MethodCreatorTokens, output); err != nil {
		return nil, fmt.Errorf("解析创建者代币列表失败: %w", err)
	}
	return tokens, nil
}
