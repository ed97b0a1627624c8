package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"tryfi/internal/chain"
	"tryfi/internal/config"
	"tryfi/internal/constant"
	"tryfi/internal/logic/session"
	"tryfi/internal/model"
	"tryfi/internal/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/zeromicro/go-zero/core/logx"
)

// State is the engine's position in the confirmation lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingConfirmation
	StateSubmitting
	StateSigning
	StateWaitingForReceipt
)

func (s State) String() string {
	switch s {
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateSubmitting:
		return "submitting"
	case StateSigning:
		return "signing"
	case StateWaitingForReceipt:
		return "waiting_for_receipt"
	default:
		return "idle"
	}
}

// OpKind tags the pending interactive operation.
type OpKind string

const (
	OpTransaction   OpKind = "transaction"
	OpPersonalSign  OpKind = "personal_sign"
	OpTypedDataSign OpKind = "typed_data_sign"
	OpRawSign       OpKind = "raw_sign"
)

// Surface is the narrow slice of the presentation layer the engine drives.
type Surface interface {
	ShowForConfirmation()
	SetStatus(kind, message string)
	ReturnToDefault(after time.Duration)
	ScheduleAutoHide(after time.Duration)
}

type outcome struct {
	result string
	err    error
}

// pendingOp carries one in-flight interactive request together with the
// resolver for the originating provider call.
type pendingOp struct {
	kind    OpKind
	tx      *types.TxParams
	intent  *Intent
	message string
	typed   apitypes.TypedData
	signer  string
	done    chan outcome
}

// Engine gates every operation that spends funds or produces a signature
// behind explicit user approval. It tracks at most one PendingOperation;
// a second request while one is outstanding is rejected with an explicit
// error rather than silently replacing the first resolver.
type Engine struct {
	mu      sync.Mutex
	state   State
	pending *pendingOp

	cfg      *config.Config
	chain    chain.Chain
	store    model.WalletStore
	sessions *session.Manager
	surface  Surface
	logx.Logger
}

func NewEngine(cfg *config.Config, ch chain.Chain, store model.WalletStore, sessions *session.Manager, surface Surface) *Engine {
	return &Engine{
		cfg:      cfg,
		chain:    ch,
		store:    store,
		sessions: sessions,
		surface:  surface,
		Logger:   logx.WithContext(context.Background()),
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) CurrentState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// claim installs op as the single pending operation, or fails when one is
// already outstanding.
func (e *Engine) claim(op *pendingOp) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		return types.ErrOperationInProgress
	}
	e.pending = op
	e.state = StateAwaitingConfirmation
	return nil
}

// abandon clears op if it is still awaiting confirmation, for callers that
// give up before the user acts.
func (e *Engine) abandon(op *pendingOp) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == op && e.state == StateAwaitingConfirmation {
		e.pending = nil
		e.state = StateIdle
	}
}

// await suspends the provider call until the user acts or the caller goes
// away.
func (e *Engine) await(ctx context.Context, op *pendingOp) (string, error) {
	select {
	case out := <-op.done:
		return out.result, out.err
	case <-ctx.Done():
		e.abandon(op)
		return "", ctx.Err()
	}
}

// AwaitTransaction runs the full confirmation lifecycle for an
// eth_sendTransaction request and resolves with the transaction hash.
func (e *Engine) AwaitTransaction(ctx context.Context, tx *types.TxParams) (string, error) {
	sess := e.sessions.Current()
	if sess == nil {
		return "", types.ErrNoWallet
	}

	op := &pendingOp{kind: OpTransaction, tx: tx, done: make(chan outcome, 1)}
	if err := e.claim(op); err != nil {
		return "", err
	}

	// 渲染确认界面前先解析交易意图
	intent := e.decodeIntent(ctx, sess.Address, tx)
	e.mu.Lock()
	op.intent = intent
	e.mu.Unlock()

	e.surface.ShowForConfirmation()
	return e.await(ctx, op)
}

// AwaitPersonalSign runs the confirmation lifecycle for personal_sign.
func (e *Engine) AwaitPersonalSign(ctx context.Context, message, signer string) (string, error) {
	return e.awaitSign(ctx, OpPersonalSign, message, signer)
}

// AwaitRawSign handles legacy eth_sign. Confirmation-wise it is identical
// to personal sign but logged under its own method tag.
func (e *Engine) AwaitRawSign(ctx context.Context, message, signer string) (string, error) {
	return e.awaitSign(ctx, OpRawSign, message, signer)
}

func (e *Engine) awaitSign(ctx context.Context, kind OpKind, message, signer string) (string, error) {
	if e.sessions.Current() == nil {
		return "", types.ErrNoWallet
	}
	op := &pendingOp{kind: kind, message: message, signer: signer, done: make(chan outcome, 1)}
	if err := e.claim(op); err != nil {
		return "", err
	}
	e.surface.ShowForConfirmation()
	return e.await(ctx, op)
}

// AwaitTypedData runs the confirmation lifecycle for eth_signTypedData_v4.
// The signer address is taken as given and not verified against the
// session, matching the provider's permissive reference behavior.
func (e *Engine) AwaitTypedData(ctx context.Context, payload, signer string) (string, error) {
	if e.sessions.Current() == nil {
		return "", types.ErrNoWallet
	}

	var typed apitypes.TypedData
	if err := json.Unmarshal([]byte(payload), &typed); err != nil {
		return "", types.NewRpcError(fmt.Errorf("invalid typed data payload: %w", err))
	}

	op := &pendingOp{kind: OpTypedDataSign, typed: typed, message: payload, signer: signer, done: make(chan outcome, 1)}
	if err := e.claim(op); err != nil {
		return "", err
	}
	e.surface.ShowForConfirmation()
	return e.await(ctx, op)
}

// Pending exposes the outstanding operation to the presentation layer.
func (e *Engine) Pending() *types.PendingResp {
	e.mu.Lock()
	defer e.mu.Unlock()

	resp := &types.PendingResp{State: e.state.String()}
	op := e.pending
	if op == nil {
		return resp
	}
	resp.Pending = true

	view := &types.PendingView{Kind: string(op.kind), Signer: op.signer}
	switch op.kind {
	case OpTransaction:
		if op.tx != nil {
			view.From = op.tx.From
			view.To = op.tx.To
		}
		if op.intent != nil {
			view.Intent = string(op.intent.Kind)
			view.Amount = op.intent.Amount
			view.TokenSymbol = op.intent.TokenSymbol
			view.InsufficientBalance = op.intent.Insufficient
			if op.intent.Kind == IntentApproval {
				view.Spender = op.intent.Spender.Hex()
			}
			if op.intent.Kind == IntentTokenTransfer {
				view.To = op.intent.Recipient.Hex()
			}
		}
	case OpTypedDataSign:
		view.Domain = op.typed.Domain.Name
		view.Message = op.message
	default:
		view.Message = op.message
	}
	resp.Detail = view
	return resp
}

// Confirm applies the user's approval to the pending operation.
func (e *Engine) Confirm(ctx context.Context) (*types.ConfirmResp, error) {
	e.mu.Lock()
	op := e.pending
	if op == nil || e.state != StateAwaitingConfirmation {
		e.mu.Unlock()
		return nil, types.ErrNoPendingOperation
	}
	if op.kind == OpTransaction && op.intent != nil && op.intent.Insufficient {
		// 余额不足时确认按钮不可用，确认操作是空操作
		e.mu.Unlock()
		return nil, errors.New("insufficient token balance: confirmation is disabled")
	}
	// 持锁离开 AwaitingConfirmation，确认动作只允许生效一次，
	// 并发的 Reject 或重复点击的 Confirm 都会被状态检查挡住
	if op.kind == OpTransaction {
		e.state = StateSubmitting
	} else {
		e.state = StateSigning
	}
	e.mu.Unlock()

	switch op.kind {
	case OpTransaction:
		return e.confirmTransaction(ctx, op)
	default:
		return e.confirmSign(op)
	}
}

// Reject declines the pending operation. The transaction log is untouched
// and the original caller's promise is rejected with a user-rejection error.
func (e *Engine) Reject(ctx context.Context) (*types.RejectResp, error) {
	e.mu.Lock()
	op := e.pending
	if op == nil {
		e.mu.Unlock()
		return nil, types.ErrNoPendingOperation
	}
	if e.state != StateAwaitingConfirmation {
		e.mu.Unlock()
		return nil, errors.New("operation already accepted: only the confirmation step is cancelable")
	}
	e.pending = nil
	e.state = StateIdle
	e.mu.Unlock()

	e.Infof("用户拒绝了待确认操作: %s", op.kind)
	op.done <- outcome{err: types.ErrUserRejected}

	e.surface.ReturnToDefault(0)
	if e.cfg.Position == constant.PositionHidden {
		e.surface.ScheduleAutoHide(constant.RejectHideDelay)
	}
	return &types.RejectResp{Message: "operation rejected"}, nil
}

// settle clears the pending slot and hands the outcome back to the
// suspended provider call.
func (e *Engine) settle(op *pendingOp, out outcome) {
	e.mu.Lock()
	e.pending = nil
	e.state = StateIdle
	e.mu.Unlock()
	op.done <- out
}

func (e *Engine) confirmTransaction(ctx context.Context, op *pendingOp) (*types.ConfirmResp, error) {
	hash, err := e.submitAndWait(ctx, op)
	if err != nil {
		e.surface.SetStatus("tx", fmt.Sprintf("❌ Transaction failed: %v", err))
		e.settle(op, outcome{err: types.NewRpcError(err)})
		e.surface.ReturnToDefault(constant.FailureViewDelay)
		return nil, err
	}

	e.surface.SetStatus("tx", "✅ Transaction confirmed!")
	e.settle(op, outcome{result: hash})
	e.surface.ReturnToDefault(constant.SuccessViewDelay)
	if e.cfg.Position == constant.PositionHidden {
		e.surface.ScheduleAutoHide(constant.AutoHideDelay)
	}
	return &types.ConfirmResp{TxHash: hash, Message: "transaction confirmed"}, nil
}

// submitAndWait drives Submitting → WaitingForReceipt → Settled. Any error
// after broadcast marks the most recent pending record failed.
func (e *Engine) submitAndWait(ctx context.Context, op *pendingOp) (string, error) {
	sess := e.sessions.Current()
	if sess == nil {
		return "", types.ErrNoWallet
	}

	tx := op.tx
	to := common.HexToAddress(tx.To)

	value := new(big.Int)
	if tx.Value != "" {
		v, err := hexutil.DecodeBig(tx.Value)
		if err != nil {
			return "", fmt.Errorf("invalid transaction value: %w", err)
		}
		value = v
	}
	var data []byte
	if tx.Data != "" {
		b, err := hexutil.Decode(tx.Data)
		if err != nil {
			return "", fmt.Errorf("invalid transaction data: %w", err)
		}
		data = b
	}

	// gas limit 优先使用调用方提供的值，否则走链上估算
	var gasLimit uint64
	if tx.Gas != "" {
		g, err := hexutil.DecodeUint64(tx.Gas)
		if err != nil {
			return "", fmt.Errorf("invalid gas value: %w", err)
		}
		gasLimit = g
	} else {
		g, err := e.chain.EstimateGas(ctx, ethereum.CallMsg{
			From:  sess.Address,
			To:    &to,
			Value: value,
			Data:  data,
		})
		if err != nil {
			return "", fmt.Errorf("gas estimation failed: %w", err)
		}
		gasLimit = g
	}

	var gasPrice *big.Int
	if tx.GasPrice != "" {
		p, err := hexutil.DecodeBig(tx.GasPrice)
		if err != nil {
			return "", fmt.Errorf("invalid gas price: %w", err)
		}
		gasPrice = p
	} else {
		p, err := e.chain.SuggestGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get gas price: %w", err)
		}
		gasPrice = p
	}

	nonce, err := e.chain.PendingNonceAt(ctx, sess.Address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	unsigned := evmTypes.NewTx(&evmTypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := evmTypes.SignTx(unsigned, evmTypes.NewEIP155Signer(big.NewInt(e.cfg.ChainId)), sess.Key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	e.surface.SetStatus("tx", "Submitting transaction...")
	e.Infof("提交交易: %s", signed.Hash().Hex())

	if err := e.chain.SendSigned(ctx, signed); err != nil {
		e.failLatestPending(ctx)
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	// 广播之后交易不可取消，回执等待和状态落库不再跟随请求取消，
	// 只受 ReceiptWaitTimeout 约束
	waitCtx := context.WithoutCancel(ctx)

	hash := signed.Hash().Hex()
	e.appendRecord(waitCtx, sess.Address, op.intent, hash)

	e.mu.Lock()
	e.state = StateWaitingForReceipt
	e.mu.Unlock()
	e.surface.SetStatus("tx", "Waiting for confirmation...")

	receipt, err := e.chain.WaitForReceipt(waitCtx, signed.Hash())
	if err != nil {
		e.failLatestPending(waitCtx)
		return "", fmt.Errorf("failed waiting for receipt: %w", err)
	}
	if receipt.Status != evmTypes.ReceiptStatusSuccessful {
		e.failLatestPending(waitCtx)
		return "", errors.New("transaction reverted")
	}

	if err := e.store.UpdateTransactionStatus(waitCtx, hash, constant.TxStatusConfirmed); err != nil {
		e.Errorf("更新交易状态失败: %v", err)
	}
	e.Infof("✅ 交易确认成功: %s", hash)
	return hash, nil
}

// appendRecord persists the pending TransactionRecord for a just-broadcast
// transaction.
func (e *Engine) appendRecord(ctx context.Context, from common.Address, intent *Intent, hash string) {
	rec := &model.TransactionRecord{
		Hash:      hash,
		FromAddr:  from.Hex(),
		Status:    constant.TxStatusPending,
		Timestamp: time.Now(),
	}
	switch {
	case intent == nil:
		rec.Type = constant.TxTypeSend
	case intent.Kind == IntentApproval:
		rec.Type = constant.TxTypeApproval
		rec.Spender = intent.Spender.Hex()
		rec.Amount = intent.Amount
		rec.TokenSymbol = intent.TokenSymbol
	case intent.Kind == IntentTokenTransfer:
		rec.Type = constant.TxTypeSend
		rec.ToAddr = intent.Recipient.Hex()
		rec.Amount = intent.Amount
		rec.TokenSymbol = intent.TokenSymbol
	default:
		rec.Type = constant.TxTypeSend
		rec.ToAddr = intent.To.Hex()
		rec.Amount = intent.Amount
		rec.TokenSymbol = e.cfg.NativeCurrency.Symbol
	}
	if err := e.store.AppendTransaction(ctx, rec); err != nil {
		e.Errorf("写入交易日志失败: %v", err)
	}
}

// failLatestPending marks the most recent pending record (if any) failed.
func (e *Engine) failLatestPending(ctx context.Context) {
	rec, err := e.store.LatestPendingTransaction(ctx)
	if err != nil {
		return
	}
	if err := e.store.UpdateTransactionStatus(ctx, rec.Hash, constant.TxStatusFailed); err != nil {
		e.Errorf("标记交易失败状态出错: %v", err)
	}
}

func (e *Engine) confirmSign(op *pendingOp) (*types.ConfirmResp, error) {
	sess := e.sessions.Current()
	if sess == nil {
		e.settle(op, outcome{err: types.ErrNoWallet})
		return nil, types.ErrNoWallet
	}

	e.surface.SetStatus("sign", "Signing...")

	var sig string
	var err error
	if op.kind == OpTypedDataSign {
		sig, err = signTypedData(op.typed, sess.Key)
	} else {
		sig, err = signText(op.message, sess.Key)
	}
	if err != nil {
		e.surface.SetStatus("sign", fmt.Sprintf("❌ Signing failed: %v", err))
		e.settle(op, outcome{err: types.NewRpcError(err)})
		return nil, err
	}

	e.Infof("🖊️ 签名完成: method=%s, signer=%s", op.kind, sess.Address.Hex())
	e.surface.SetStatus("sign", "✅ Signed!")
	e.settle(op, outcome{result: sig})
	e.surface.ReturnToDefault(constant.SuccessViewDelay)
	if e.cfg.Position == constant.PositionHidden {
		e.surface.ScheduleAutoHide(constant.AutoHideDelay)
	}

	return &types.ConfirmResp{Signature: sig, Message: "signed"}, nil
}
