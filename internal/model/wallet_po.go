package model

import (
	"time"
)

// WalletSession corresponds to the wallet_session table. At most one row
// exists: the active disposable keypair.
//
// !!! 注意: 私钥以明文形式存储。这是测试工具的刻意取舍，
// !!! 它的安全模型假定运行在可信的测试环境里，不要在生产中照搬
type WalletSession struct {
	Id            int64     `gorm:"primaryKey"`
	PrivateKeyHex string    `gorm:"column:private_key_hex"`
	Address       string    `gorm:"column:address"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// TableName implements the gorm table naming convention.
func (WalletSession) TableName() string { return "wallet_session" }

// TransactionRecord corresponds to one row of the append-only transaction
// log. Insertion order is preserved; display order is reverse-chronological.
type TransactionRecord struct {
	Id          int64     `gorm:"primaryKey"`
	Hash        string    `gorm:"column:hash;uniqueIndex"`
	Type        string    `gorm:"column:type"` // send | receive | approval
	FromAddr    string    `gorm:"column:from_addr"`
	ToAddr      string    `gorm:"column:to_addr"`
	Spender     string    `gorm:"column:spender"`
	Amount      string    `gorm:"column:amount"` // decimal string, or "Unlimited"
	TokenSymbol string    `gorm:"column:token_symbol"`
	Status      string    `gorm:"column:status"` // pending | confirmed | failed
	Timestamp   time.Time `gorm:"column:timestamp"`
}

func (TransactionRecord) TableName() string { return "transaction_log" }

// TokenInfoEntry is the token metadata cache, one row per contract address.
type TokenInfoEntry struct {
	Address   string    `gorm:"primaryKey;column:address"`
	Symbol    string    `gorm:"column:symbol"`
	Name      string    `gorm:"column:name"`
	Decimals  int       `gorm:"column:decimals"`
	FetchedAt time.Time `gorm:"column:fetched_at"`
}

func (TokenInfoEntry) TableName() string { return "token_info_cache" }
