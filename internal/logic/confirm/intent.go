package confirm

import (
	"bytes"
	"context"
	"math/big"

	walletCommon "tryfi/internal/common"
	"tryfi/internal/constant"
	"tryfi/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// IntentKind classifies what a transaction request actually does.
type IntentKind string

const (
	IntentNativeTransfer IntentKind = "native_transfer"
	IntentTokenTransfer  IntentKind = "token_transfer"
	IntentApproval       IntentKind = "approval"
)

// Intent is the decoded, human-readable reading of an eth_sendTransaction
// request, computed before the confirmation surface renders.
type Intent struct {
	Kind      IntentKind
	To        common.Address // tx target; the token contract for ERC-20 calls
	Recipient common.Address // token transfer recipient
	Spender   common.Address // approval spender
	RawAmount *big.Int       // raw token amount, or native value in wei

	Amount      string // display amount; "Unlimited" for max approvals
	TokenSymbol string
	Unlimited   bool
	// Insufficient disables the confirm action: the requested token amount
	// exceeds the session's on-chain balance.
	Insufficient bool
}

// decodeIntent 解析交易意图：检查 calldata 前 4 字节，
// 命中 approve/transfer 选择器则按 ERC20 处理，否则按原生转账处理。
func (e *Engine) decodeIntent(ctx context.Context, from common.Address, tx *types.TxParams) *Intent {
	to := common.HexToAddress(tx.To)

	var data []byte
	if tx.Data != "" {
		if b, err := hexutil.Decode(tx.Data); err == nil {
			data = b
		}
	}

	// ERC20 approve(spender, amount) / transfer(to, amount) 的 calldata 均为
	// 4 字节选择器 + 两个 32 字节参数
	if len(data) >= 68 {
		selector := data[:4]
		arg1 := data[4:36]
		amount := new(big.Int).SetBytes(data[36:68])

		if bytes.Equal(selector, constant.SelectorApprove) {
			return e.decodeApproval(ctx, to, common.BytesToAddress(arg1), amount)
		}
		if bytes.Equal(selector, constant.SelectorTransfer) {
			return e.decodeTokenTransfer(ctx, from, to, common.BytesToAddress(arg1), amount)
		}
	}

	value := new(big.Int)
	if tx.Value != "" {
		if v, err := hexutil.DecodeBig(tx.Value); err == nil {
			value = v
		}
	}
	return &Intent{
		Kind:      IntentNativeTransfer,
		To:        to,
		RawAmount: value,
		Amount:    walletCommon.FormatUnits(value, e.cfg.NativeCurrency.Decimals),
	}
}

func (e *Engine) decodeApproval(ctx context.Context, token, spender common.Address, amount *big.Int) *Intent {
	info := e.chain.GetTokenInfo(ctx, token)

	intent := &Intent{
		Kind:        IntentApproval,
		To:          token,
		Spender:     spender,
		RawAmount:   amount,
		TokenSymbol: info.Symbol,
	}
	if amount.Cmp(constant.MaxUint256) == 0 {
		intent.Unlimited = true
		intent.Amount = constant.UnlimitedAmount
	} else {
		intent.Amount = walletCommon.FormatUnits(amount, info.Decimals)
	}
	return intent
}

func (e *Engine) decodeTokenTransfer(ctx context.Context, from, token, recipient common.Address, amount *big.Int) *Intent {
	info := e.chain.GetTokenInfo(ctx, token)

	intent := &Intent{
		Kind:        IntentTokenTransfer,
		To:          token,
		Recipient:   recipient,
		RawAmount:   amount,
		TokenSymbol: info.Symbol,
		Amount:      walletCommon.FormatUnits(amount, info.Decimals),
	}

	balance, err := e.chain.TokenBalanceOf(ctx, token, from)
	if err != nil {
		// 余额查询失败不阻塞确认界面，按余额未知处理
		e.Infof("代币余额查询失败，跳过余额校验: %v", err)
		return intent
	}
	if amount.Cmp(balance) > 0 {
		intent.Insufficient = true
	}
	return intent
}
