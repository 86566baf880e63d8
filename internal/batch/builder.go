package batch

import (
	"math/big"

	xerrors "BaseCreator/internal/errors"
	"BaseCreator/internal/web3"
	"BaseCreator/internal/web3/contract"

	"github.com/ethereum/go-ethereum/common"
)

// BuildCreateAction encodes a createMemeToken call against the factory and
// attaches fee as the call value.
func (e *Executor) BuildCreateAction(params contract.CreateTokenParams, fee *big.Int) (web3.Batch, error) {
	if e.factory == (common.Address{}) {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置工厂合约地址")
	}
	if fee == nil || fee.Sign() < 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "创建费用必须为非负数")
	}
	if err := params.Validate(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "代币参数不合法")
	}

	data, err := e.factoryEncoder.Pack(contract.MethodCreateToken, params.Args()...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeEncodingFailure, err, "编码 createMemeToken 失败",
			xerrors.WithMetadata("method", contract.MethodCreateToken))
	}

	return web3.Batch{{
		To:    e.factory,
		Data:  data,
		Value: new(big.Int).Set(fee),
	}}, nil
}

// BuildApproveAndAct returns an approval of spender for amount on token,
// followed by payload sent to spender. The approval always comes first.
func (e *Executor) BuildApproveAndAct(token, spender common.Address, amount *big.Int, payload []byte) (web3.Batch, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "授权数量必须为非负数")
	}

	approveData, err := e.tokenEncoder.Pack(contract.MethodApprove, spender, amount)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeEncodingFailure, err, "编码 approve 失败",
			xerrors.WithMetadata("method", contract.MethodApprove))
	}

	action := make([]byte, len(payload))
	copy(action, payload)

	return web3.Batch{
		{To: token, Data: approveData, Value: new(big.Int)},
		{To: spender, Data: action, Value: new(big.Int)},
	}, nil
}
