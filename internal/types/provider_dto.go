package types

import (
	"encoding/json"
	"fmt"
)

// ProviderReq mirrors the EIP-1193 request({method, params}) call shape.
type ProviderReq struct {
	Method string            `json:"method" validate:"required"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// ProviderResp carries the successful result of a provider request. Results
// from the passthrough arm are forwarded without reinterpretation.
type ProviderResp struct {
	Result any `json:"result"`
}

// RpcError is the JSON-RPC style error surfaced to the calling dApp.
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// 对外错误码沿用钱包生态的约定：4001 用户拒绝，-32002 已有待处理请求
var (
	ErrUserRejected        = &RpcError{Code: 4001, Message: "User rejected the request"}
	ErrOperationInProgress = &RpcError{Code: -32002, Message: "Request already pending"}
	ErrNoWallet            = &RpcError{Code: 4100, Message: "No wallet session"}
	ErrNoPendingOperation  = &RpcError{Code: -32600, Message: "No pending operation"}
)

// NewRpcError wraps an internal failure for the dApp.
func NewRpcError(err error) *RpcError {
	return &RpcError{Code: -32603, Message: err.Error()}
}

// TxParams is the first positional argument of eth_sendTransaction.
// All numeric fields are 0x-prefixed hex quantities, as on the wire.
type TxParams struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Value    string `json:"value,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Data     string `json:"data,omitempty"`
}
