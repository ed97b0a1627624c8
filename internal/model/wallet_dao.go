package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = gorm.ErrRecordNotFound

// WalletStore defines the persistence operations for the session, the
// transaction log and the token metadata cache.
type WalletStore interface {
	// Session
	LoadSession(ctx context.Context) (*WalletSession, error)
	SaveSession(ctx context.Context, s *WalletSession) error
	DeleteSession(ctx context.Context) error

	// Transaction log
	AppendTransaction(ctx context.Context, rec *TransactionRecord) error
	// UpdateTransactionStatus moves a record out of pending exactly once.
	// Updating a record that is not pending is a silent no-op.
	UpdateTransactionStatus(ctx context.Context, hash, status string) error
	LatestPendingTransaction(ctx context.Context) (*TransactionRecord, error)
	ListTransactionsDesc(ctx context.Context) ([]*TransactionRecord, error)
	DeleteAllTransactions(ctx context.Context) error

	// Token metadata cache
	GetTokenInfo(ctx context.Context, address string) (*TokenInfoEntry, error)
	PutTokenInfo(ctx context.Context, entry *TokenInfoEntry) error
}

type walletStore struct {
	db *gorm.DB
}

// NewWalletStore creates a WalletStore backed by the given database and
// migrates its tables.
func NewWalletStore(db *gorm.DB) (WalletStore, error) {
	if err := db.AutoMigrate(&WalletSession{}, &TransactionRecord{}, &TokenInfoEntry{}); err != nil {
		return nil, err
	}
	return &walletStore{db: db}, nil
}

func (s *walletStore) LoadSession(ctx context.Context) (*WalletSession, error) {
	var row WalletSession
	err := s.db.WithContext(ctx).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// SaveSession 覆盖写入，同一时间只允许一条会话记录
func (s *walletStore) SaveSession(ctx context.Context, sess *WalletSession) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&WalletSession{}).Error; err != nil {
			return err
		}
		return tx.Create(sess).Error
	})
}

func (s *walletStore) DeleteSession(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&WalletSession{}).Error
}

func (s *walletStore) AppendTransaction(ctx context.Context, rec *TransactionRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *walletStore) UpdateTransactionStatus(ctx context.Context, hash, status string) error {
	// The WHERE guard keeps terminal statuses terminal.
	return s.db.WithContext(ctx).
		Model(&TransactionRecord{}).
		Where("hash = ? AND status = ?", hash, "pending").
		Update("status", status).Error
}

func (s *walletStore) LatestPendingTransaction(ctx context.Context) (*TransactionRecord, error) {
	var row TransactionRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *walletStore) ListTransactionsDesc(ctx context.Context) ([]*TransactionRecord, error) {
	var rows []*TransactionRecord
	err := s.db.WithContext(ctx).Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *walletStore) DeleteAllTransactions(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&TransactionRecord{}).Error
}

func (s *walletStore) GetTokenInfo(ctx context.Context, address string) (*TokenInfoEntry, error) {
	var row TokenInfoEntry
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *walletStore) PutTokenInfo(ctx context.Context, entry *TokenInfoEntry) error {
	return s.db.WithContext(ctx).Save(entry).Error
}
