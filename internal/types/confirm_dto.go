package types

// PendingView is the presentation layer's read of the one outstanding
// interactive operation.
type PendingView struct {
	Kind   string `json:"kind"` // transaction | personal_sign | typed_data_sign | raw_sign
	Signer string `json:"signer,omitempty"`

	// Transaction fields
	Intent              string `json:"intent,omitempty"` // native_transfer | token_transfer | approval
	From                string `json:"from,omitempty"`
	To                  string `json:"to,omitempty"`
	Spender             string `json:"spender,omitempty"`
	Amount              string `json:"amount,omitempty"` // human readable, "Unlimited" for max approvals
	TokenSymbol         string `json:"token_symbol,omitempty"`
	InsufficientBalance bool   `json:"insufficient_balance,omitempty"`

	// Signing fields
	Message string `json:"message,omitempty"`
	Domain  string `json:"domain,omitempty"` // typed data domain name
}

// PendingResp wraps the pending view; Pending is false when the engine is idle.
type PendingResp struct {
	Pending bool         `json:"pending"`
	State   string       `json:"state"`
	Detail  *PendingView `json:"detail,omitempty"`
}

// ConfirmResp is returned to the presentation layer after a confirm action.
type ConfirmResp struct {
	TxHash    string `json:"tx_hash,omitempty"`
	Signature string `json:"signature,omitempty"`
	Message   string `json:"message"`
}

// RejectResp acknowledges a rejection.
type RejectResp struct {
	Message string `json:"message"`
}

// WidgetResp reports widget visibility after a control call, plus the
// cached balance display kept warm by the refresh loop.
type WidgetResp struct {
	Visible bool   `json:"visible"`
	Status  string `json:"status,omitempty"`
	Balance string `json:"balance,omitempty"`
}
