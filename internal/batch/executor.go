package batch

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	xerrors "BaseCreator/internal/errors"
	"BaseCreator/internal/events"
	"BaseCreator/internal/web3"
	"BaseCreator/internal/web3/contract"
	"BaseCreator/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Mode records which submission path an execution took.
type Mode string

const (
	ModeAtomic     Mode = "atomic"
	ModeSequential Mode = "sequential"
)

// NonAtomicWarning is attached to sequential executions of more than one call.
const NonAtomicWarning = "wallet does not support atomic batching; calls were submitted sequentially and earlier calls are not rolled back if a later one fails"

// Outcome summarises one Execute invocation.
type Outcome struct {
	RunID string
	// Reference is the batch reference (atomic) or the reference of the last
	// submitted call (sequential).
	Reference string
	Mode      Mode
	Calls     int
	Submitted int
	Warning   string
}

// Executor builds and executes call batches for one target chain.
type Executor struct {
	chainID        uint64
	factory        common.Address
	factoryEncoder contract.Encoder
	tokenEncoder   contract.Encoder
	publisher      events.Publisher
	logger         *slog.Logger
	newRunID       func() string
}

// Option configures an Executor.
type Option func(*Executor)

// WithFactory sets the fixed factory contract targeted by BuildCreateAction.
func WithFactory(address common.Address) Option {
	return func(e *Executor) {
		e.factory = address
	}
}

// WithFactoryEncoder overrides the factory ABI encoder.
func WithFactoryEncoder(enc contract.Encoder) Option {
	return func(e *Executor) {
		if enc != nil {
			e.factoryEncoder = enc
		}
	}
}

// WithTokenEncoder overrides the ERC-20 ABI encoder.
func WithTokenEncoder(enc contract.Encoder) Option {
	return func(e *Executor) {
		if enc != nil {
			e.tokenEncoder = enc
		}
	}
}

// WithPublisher sets where execution events are sent.
func WithPublisher(p events.Publisher) Option {
	return func(e *Executor) {
		if p != nil {
			e.publisher = p
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates an executor targeting chainID.
func NewExecutor(chainID uint64, opts ...Option) (*Executor, error) {
	if chainID == 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "未配置目标链 ID")
	}
	e := &Executor{
		chainID:        chainID,
		factoryEncoder: contract.FactoryABI(),
		tokenEncoder:   contract.ERC20ABI(),
		publisher:      events.Nop{},
		newRunID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.logger == nil {
		e.logger = logger.Named("batch")
	}
	return e, nil
}

// ChainID returns the chain the executor targets.
func (e *Executor) ChainID() uint64 { return e.chainID }

// Execute submits calls through wallet, atomically when the wallet supports
// it for the target chain and sequentially otherwise. Capabilities are probed
// on every call; a failed probe aborts the execution before anything is sent.
//
// Wallet errors are not returned as-is: they are wrapped in an *errors.Error
// carrying a category code (USER_REJECTED or SUBMISSION_FAILURE) and the
// index/submitted metadata. The wallet's own error stays reachable through
// errors.Is and errors.As, so callers compare with errors.Is rather than ==.
func (e *Executor) Execute(ctx context.Context, calls web3.Batch, wallet web3.Wallet) (Outcome, error) {
	if len(calls) == 0 {
		return Outcome{}, xerrors.New(xerrors.CodeInvalidArgument, "批量交易不能为空")
	}
	if wallet.Sender == nil {
		return Outcome{}, xerrors.New(xerrors.CodeInvalidArgument, "钱包未提供交易发送能力")
	}

	outcome := Outcome{RunID: e.newRunID(), Calls: len(calls)}
	log := e.logger.With(
		slog.String("run_id", outcome.RunID),
		slog.Uint64("chain_id", e.chainID),
		slog.Int("calls", len(calls)),
	)

	atomic, err := e.atomicAvailable(ctx, wallet)
	if err != nil {
		return outcome, e.fail(ctx, log, outcome, capabilityError(err))
	}
	if atomic {
		outcome.Mode = ModeAtomic
		ref, err := wallet.Batcher.SendCalls(ctx, e.chainID, cloneBatch(calls))
		if err != nil {
			return outcome, e.fail(ctx, log, outcome, submissionError(err, 0, 0))
		}
		outcome.Reference = ref
		outcome.Submitted = len(calls)
		e.succeed(ctx, log, outcome)
		return outcome, nil
	}

	outcome.Mode = ModeSequential
	if len(calls) > 1 {
		outcome.Warning = NonAtomicWarning
		log.Warn("钱包不支持原子批量交易，改为逐笔提交")
	}
	for i, call := range calls {
		if err := ctx.Err(); err != nil {
			return outcome, e.fail(ctx, log, outcome, submissionError(err, i, outcome.Submitted))
		}
		ref, err := wallet.Sender.SendTransaction(ctx, call)
		if err != nil {
			return outcome, e.fail(ctx, log, outcome, submissionError(err, i, outcome.Submitted))
		}
		outcome.Submitted++
		outcome.Reference = ref
		log.Debug("call submitted", slog.Int("index", i), slog.String("reference", ref))
	}

	e.succeed(ctx, log, outcome)
	return outcome, nil
}

// atomicAvailable probes the wallet. Missing extensions mean "not supported".
// A failed query is returned to the caller.
func (e *Executor) atomicAvailable(ctx context.Context, wallet web3.Wallet) (bool, error) {
	if wallet.Querier == nil {
		return false, nil
	}
	caps, err := wallet.Querier.Capabilities(ctx)
	if err != nil {
		return false, err
	}
	return caps[e.chainID].SupportsAtomic() && wallet.Batcher != nil, nil
}

func (e *Executor) succeed(ctx context.Context, log *slog.Logger, outcome Outcome) {
	log.Info("batch executed",
		slog.String("mode", string(outcome.Mode)),
		slog.String("reference", outcome.Reference),
	)
	logger.Audit().Info("batch.executed",
		slog.String("run_id", outcome.RunID),
		slog.Uint64("chain_id", e.chainID),
		slog.String("mode", string(outcome.Mode)),
		slog.Int("submitted", outcome.Submitted),
		slog.String("reference", outcome.Reference),
	)
	event := e.event(events.KindBatchExecuted, outcome)
	event.Warning = outcome.Warning
	e.publish(ctx, log, event)
}

func (e *Executor) fail(ctx context.Context, log *slog.Logger, outcome Outcome, err *xerrors.Error) error {
	log.Log(ctx, xerrors.LogLevel(err), "batch failed",
		slog.String("mode", string(outcome.Mode)),
		slog.Int("submitted", outcome.Submitted),
		slog.Any("error", err),
	)
	logger.Audit().Warn("batch.failed",
		slog.String("run_id", outcome.RunID),
		slog.Uint64("chain_id", e.chainID),
		slog.String("mode", string(outcome.Mode)),
		slog.Int("submitted", outcome.Submitted),
		slog.String("code", string(err.Code())),
	)
	event := e.event(events.KindBatchFailed, outcome)
	event.Error = err.Error()
	e.publish(ctx, log, event)
	return err
}

func (e *Executor) event(kind events.Kind, outcome Outcome) events.Event {
	event := events.New(kind)
	event.ChainID = e.chainID
	event.RunID = outcome.RunID
	event.Mode = string(outcome.Mode)
	event.Calls = outcome.Calls
	event.Submitted = outcome.Submitted
	event.Reference = outcome.Reference
	return event
}

func (e *Executor) publish(ctx context.Context, log *slog.Logger, event events.Event) {
	if err := e.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Warn("发布批量交易事件失败", slog.String("kind", string(event.Kind)), slog.Any("error", err))
	}
}

// capabilityError classifies a failed capability query. Nothing has been
// submitted at that point.
func capabilityError(err error) *xerrors.Error {
	code := xerrors.CodeSubmissionFailure
	message := "查询钱包能力失败"
	if web3.IsUserRejection(err) {
		code = xerrors.CodeUserRejected
		message = "用户拒绝了钱包能力查询"
	}
	return xerrors.Wrap(code, err, message,
		xerrors.WithMetadata("stage", "capabilities"),
		xerrors.WithMetadata("submitted", "0"),
	)
}

// submissionError classifies a wallet error without hiding it: the original
// error stays reachable through errors.Is / errors.As.
func submissionError(err error, index, submitted int) *xerrors.Error {
	code := xerrors.CodeSubmissionFailure
	message := "提交交易失败"
	switch {
	case web3.IsUserRejection(err):
		code = xerrors.CodeUserRejected
		message = "用户拒绝了交易请求"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		message = "交易提交已取消"
	}
	return xerrors.Wrap(code, err, message,
		xerrors.WithMetadata("index", strconv.Itoa(index)),
		xerrors.WithMetadata("submitted", strconv.Itoa(submitted)),
	)
}

func cloneBatch(calls web3.Batch) web3.Batch {
	out := make(web3.Batch, len(calls))
	copy(out, calls)
	return out
}
