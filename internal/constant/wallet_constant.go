package constant

import (
	"math/big"
	"time"
)

// Provider methods handled by the shim itself. Everything else is forwarded
// verbatim to the configured node.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodSendTransaction = "eth_sendTransaction"
	MethodPersonalSign    = "personal_sign"
	MethodSignTypedDataV4 = "eth_signTypedData_v4"
	MethodSign            = "eth_sign"
)

// InteractiveMethods 需要用户确认的方法，调用时会唤起确认界面
var InteractiveMethods = []string{
	MethodSendTransaction,
	MethodPersonalSign,
	MethodSignTypedDataV4,
	MethodSign,
}

// RequiresUI reports whether the given provider method needs an interactive
// confirmation before it can complete.
func RequiresUI(method string) bool {
	for _, m := range InteractiveMethods {
		if m == method {
			return true
		}
	}
	return false
}

// ERC-20 function selectors (keccak256 of the canonical signature, first 4 bytes).
//
//	approve(address,uint256)   → 0x095ea7b3
//	transfer(address,uint256)  → 0xa9059cbb
//	balanceOf(address)         → 0x70a08231
//	symbol()                   → 0x95d89b41
//	name()                     → 0x06fdde03
//	decimals()                 → 0x313ce567
var (
	SelectorApprove   = []byte{0x09, 0x5e, 0xa7, 0xb3}
	SelectorTransfer  = []byte{0xa9, 0x05, 0x9c, 0xbb}
	SelectorBalanceOf = []byte{0x70, 0xa0, 0x82, 0x31}
	SelectorSymbol    = []byte{0x95, 0xd8, 0x9b, 0x41}
	SelectorName      = []byte{0x06, 0xfd, 0xde, 0x03}
	SelectorDecimals  = []byte{0x31, 0x3c, 0xe5, 0x67}
)

// Transaction record types.
const (
	TxTypeSend     = "send"
	TxTypeReceive  = "receive"
	TxTypeApproval = "approval"
)

// Transaction record statuses. A record moves pending → confirmed or
// pending → failed exactly once and never transitions again.
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
)

// Widget positions.
const (
	PositionTopLeft     = "top-left"
	PositionTopRight    = "top-right"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"
	PositionHidden      = "hidden"
)

// 各类延时，与交互节奏相关：
// 成功画面停留 2s，失败画面停留 4s，拒绝后 1s 自动隐藏，
// 成功后 3s 自动隐藏，状态消息 5s 自动消失
const (
	SuccessViewDelay   = 2 * time.Second
	FailureViewDelay   = 4 * time.Second
	RejectHideDelay    = 1 * time.Second
	AutoHideDelay      = 3 * time.Second
	StatusDismissDelay = 5 * time.Second
)

// Chain client tuning.
const (
	TokenInfoTTL           = time.Hour
	TokenCallTimeout       = 3 * time.Second
	ReceiptPollInterval    = 3 * time.Second
	ReceiptWaitTimeout     = 5 * time.Minute
	BalanceRefreshInterval = 30 * time.Second
)

// Token metadata fallbacks used when a lookup times out or errors.
const (
	FallbackSymbol    = "Unknown"
	FallbackTokenName = "Unknown Token"
	FallbackDecimals  = 18
)

// MaxUint256 is the unlimited-approval sentinel. Approvals for exactly this
// amount are displayed as "Unlimited".
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// UnlimitedAmount is the display form of a max-uint256 approval.
const UnlimitedAmount = "Unlimited"
