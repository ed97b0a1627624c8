package session

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"tryfi/internal/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/zeromicro/go-zero/core/logx"
)

// Session is the single active disposable keypair plus its derived address.
type Session struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

// Manager exclusively owns the active Session and the shim's injection
// state. At most one Session exists at a time.
type Manager struct {
	mu       sync.Mutex
	store    model.WalletStore
	current  *Session
	injected bool
	logx.Logger
}

func NewManager(store model.WalletStore) *Manager {
	return &Manager{
		store:  store,
		Logger: logx.WithContext(context.Background()),
	}
}

// Load restores a persisted session at startup, if one exists, and
// activates the provider shim for it.
func (m *Manager) Load(ctx context.Context) error {
	row, err := m.store.LoadSession(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// 没有历史会话，等用户主动创建
			m.mu.Lock()
			m.injected = true
			m.mu.Unlock()
			return nil
		}
		return err
	}

	key, err := crypto.HexToECDSA(row.PrivateKeyHex)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = &Session{Key: key, Address: crypto.PubkeyToAddress(key.PublicKey)}
	m.injected = true
	m.mu.Unlock()

	m.Infof("已加载持久化钱包: %s", row.Address)
	return nil
}

// Create generates a fresh random keypair, persists it with an empty
// transaction log, and activates the shim. Calling Create while a session
// exists returns the existing one.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	m.Infof("开始创建一次性钱包...")
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	if err := m.store.SaveSession(ctx, &model.WalletSession{
		PrivateKeyHex: hex.EncodeToString(crypto.FromECDSA(key)),
		Address:       addr.Hex(),
		CreatedAt:     time.Now(),
	}); err != nil {
		return nil, err
	}

	m.current = &Session{Key: key, Address: addr}
	m.injected = true
	m.Infof("✅ 钱包创建成功: %s", addr.Hex())
	return m.current, nil
}

// Current returns the active session, or nil when none exists.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Injected reports whether the shim currently occupies the provider
// injection point. When false, every request falls through to the node,
// which is the Go rendering of "restore the original window.ethereum".
func (m *Manager) Injected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.injected
}

// Restore hands the injection point back without wiping the persisted
// wallet (the widget destroy path).
func (m *Manager) Restore() {
	m.mu.Lock()
	m.injected = false
	m.mu.Unlock()
}

// Destroy ends the session: wipes the persisted key material and
// transaction log, clears the in-memory session, and hands the injection
// point back. Creating a new wallet re-activates the shim.
func (m *Manager) Destroy(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteSession(ctx); err != nil {
		return err
	}
	if err := m.store.DeleteAllTransactions(ctx); err != nil {
		return err
	}

	m.current = nil
	m.injected = false
	m.Infof("钱包会话已结束，持久化数据已清除")
	return nil
}
