package types

// WalletResp describes the current session, if any.
type WalletResp struct {
	Active  bool   `json:"active"`
	Address string `json:"address,omitempty"`
}

// BalanceResp is the widget's formatted native balance display.
type BalanceResp struct {
	Address string `json:"address"`
	Balance string `json:"balance"` // formatted native units
	Symbol  string `json:"symbol"`
}

// ReceiveResp backs the receive surface: the address plus an optional
// faucet link when the chain has one configured.
type ReceiveResp struct {
	Address   string `json:"address"`
	FaucetUrl string `json:"faucet_url,omitempty"`
}

// ActivityItem 活动列表里的一条记录，倒序展示
type ActivityItem struct {
	Hash        string `json:"hash"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	ExplorerUrl string `json:"explorer_url"`
	Timestamp   int64  `json:"timestamp"`
}

// ActivityResp is the reverse-chronological transaction log view.
type ActivityResp struct {
	Transactions []ActivityItem `json:"transactions"`
}

// TokenInfo is cached ERC-20 contract metadata.
type TokenInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}
