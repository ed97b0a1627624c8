package widget

import (
	"context"
	"sync"
	"time"

	"tryfi/internal/chain"
	"tryfi/internal/common"
	"tryfi/internal/config"
	"tryfi/internal/constant"
	"tryfi/internal/logic/session"
	"tryfi/internal/types"

	"github.com/skip2/go-qrcode"
	"github.com/zeromicro/go-zero/core/logx"
)

// Manager owns the widget's presentation state: visibility, the current
// status message and the cached balance display. It is the Surface the
// confirmation engine drives.
type Manager struct {
	mu       sync.Mutex
	cfg      *config.Config
	chain    chain.Chain
	sessions *session.Manager

	visible    bool
	destroyed  bool
	confirming bool

	statusKind  string
	statusMsg   string
	statusTimer *time.Timer
	hideTimer   *time.Timer
	returnTimer *time.Timer

	balance     string
	refreshStop chan struct{}

	logx.Logger
}

func NewManager(cfg *config.Config, ch chain.Chain, sessions *session.Manager) *Manager {
	m := &Manager{
		cfg:      cfg,
		chain:    ch,
		sessions: sessions,
		Logger:   logx.WithContext(context.Background()),
	}
	// hidden 布局下控件默认不可见，其它布局启动即展示
	if cfg.Position != constant.PositionHidden {
		m.visible = true
		m.startRefresh()
	}
	return m
}

// Show makes the widget visible and starts the balance refresh loop.
func (m *Manager) Show() *types.WidgetResp {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return m.snapshotLocked()
	}
	m.cancelTimerLocked(&m.hideTimer)
	if !m.visible {
		m.visible = true
		m.startRefresh()
	}
	return m.snapshotLocked()
}

// Hide conceals the widget and stops the refresh loop.
func (m *Manager) Hide() *types.WidgetResp {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hideLocked()
	return m.snapshotLocked()
}

// Toggle flips visibility.
func (m *Manager) Toggle() *types.WidgetResp {
	m.mu.Lock()
	visible := m.visible
	m.mu.Unlock()
	if visible {
		return m.Hide()
	}
	return m.Show()
}

// Destroy tears the widget down and hands the page back to whatever
// provider was there before. Safe to call more than once.
func (m *Manager) Destroy() *types.WidgetResp {
	m.mu.Lock()
	if m.destroyed {
		defer m.mu.Unlock()
		return m.snapshotLocked()
	}
	m.destroyed = true
	m.hideLocked()
	m.cancelTimerLocked(&m.statusTimer)
	m.cancelTimerLocked(&m.returnTimer)
	m.mu.Unlock()

	m.Info("销毁控件，恢复原始 provider")
	m.sessions.Restore()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Snapshot reports current visibility and status.
func (m *Manager) Snapshot() *types.WidgetResp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() *types.WidgetResp {
	resp := &types.WidgetResp{Visible: m.visible, Balance: m.balance}
	if m.statusMsg != "" {
		resp.Status = m.statusMsg
	}
	return resp
}

func (m *Manager) hideLocked() {
	if !m.visible {
		return
	}
	m.visible = false
	m.stopRefreshLocked()
	m.cancelTimerLocked(&m.hideTimer)
}

// ShowForConfirmation surfaces the widget and switches it to the
// confirmation view, regardless of the configured position.
func (m *Manager) ShowForConfirmation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	m.cancelTimerLocked(&m.hideTimer)
	m.cancelTimerLocked(&m.returnTimer)
	m.confirming = true
	if !m.visible {
		m.visible = true
		m.startRefresh()
	}
}

// Confirming reports whether the confirmation view is up.
func (m *Manager) Confirming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirming
}

// SetStatus shows a transient status line that dismisses itself.
func (m *Manager) SetStatus(kind, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	m.statusKind = kind
	m.statusMsg = message
	m.cancelTimerLocked(&m.statusTimer)
	m.statusTimer = time.AfterFunc(constant.StatusDismissDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.statusKind == kind {
			m.statusKind = ""
			m.statusMsg = ""
		}
	})
}

// ReturnToDefault schedules the switch back from the confirmation view.
func (m *Manager) ReturnToDefault(after time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked(&m.returnTimer)
	if after <= 0 {
		m.confirming = false
		return
	}
	m.returnTimer = time.AfterFunc(after, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.confirming = false
	})
}

// ScheduleAutoHide hides the widget after the given delay. Only relevant
// for the hidden layout where confirmation popped the widget up.
func (m *Manager) ScheduleAutoHide(after time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	m.cancelTimerLocked(&m.hideTimer)
	m.hideTimer = time.AfterFunc(after, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.hideLocked()
	})
}

func (m *Manager) cancelTimerLocked(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// Balance returns the formatted native balance for the active session,
// refreshing it from the chain.
func (m *Manager) Balance(ctx context.Context) (*types.BalanceResp, error) {
	sess := m.sessions.Current()
	if sess == nil {
		return nil, types.ErrNoWallet
	}
	bal := m.chain.GetBalance(ctx, sess.Address)
	formatted := common.FormatUnits(bal, m.cfg.NativeCurrency.Decimals)

	m.mu.Lock()
	m.balance = formatted
	m.mu.Unlock()

	return &types.BalanceResp{
		Address: sess.Address.Hex(),
		Balance: formatted,
		Symbol:  m.cfg.NativeCurrency.Symbol,
	}, nil
}

// Receive backs the receive view: the session address plus the faucet
// link when the chain has one configured.
func (m *Manager) Receive() (*types.ReceiveResp, error) {
	sess := m.sessions.Current()
	if sess == nil {
		return nil, types.ErrNoWallet
	}
	return &types.ReceiveResp{
		Address:   sess.Address.Hex(),
		FaucetUrl: m.cfg.FaucetUrl,
	}, nil
}

// ReceiveQR renders the session address as a QR code PNG.
func (m *Manager) ReceiveQR(size int) ([]byte, error) {
	sess := m.sessions.Current()
	if sess == nil {
		return nil, types.ErrNoWallet
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(sess.Address.Hex(), qrcode.Medium, size)
}

// startRefresh spins up the 30s balance refresh loop. Caller holds the lock.
func (m *Manager) startRefresh() {
	if m.refreshStop != nil {
		return
	}
	stop := make(chan struct{})
	m.refreshStop = stop
	go m.refreshLoop(stop)
}

func (m *Manager) stopRefreshLocked() {
	if m.refreshStop != nil {
		close(m.refreshStop)
		m.refreshStop = nil
	}
}

// refreshLoop keeps the cached balance warm while the widget is visible.
func (m *Manager) refreshLoop(stop chan struct{}) {
	ticker := time.NewTicker(constant.BalanceRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sess := m.sessions.Current()
			if sess == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), constant.TokenCallTimeout)
			bal := m.chain.GetBalance(ctx, sess.Address)
			cancel()
			m.mu.Lock()
			m.balance = common.FormatUnits(bal, m.cfg.NativeCurrency.Decimals)
			m.mu.Unlock()
		}
	}
}
