package widget

import (
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"tryfi/internal/config"
	"tryfi/internal/constant"
	"tryfi/internal/logic/session"
	"tryfi/internal/model"
	"tryfi/internal/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeChain struct {
	balance *big.Int
}

func (f *fakeChain) GetBalance(ctx context.Context, addr common.Address) *big.Int {
	if f.balance == nil {
		return big.NewInt(0)
	}
	return f.balance
}

func (f *fakeChain) TokenBalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeChain) GetTokenInfo(ctx context.Context, token common.Address) types.TokenInfo {
	return types.TokenInfo{}
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 0, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeChain) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return 0, nil
}

func (f *fakeChain) SendSigned(ctx context.Context, tx *evmTypes.Transaction) error { return nil }

func (f *fakeChain) WaitForReceipt(ctx context.Context, hash common.Hash) (*evmTypes.Receipt, error) {
	return nil, nil
}

func (f *fakeChain) Send(ctx context.Context, method string, params []json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeChain) ChainId() int64 { return 11155111 }

func (f *fakeChain) Close() {}

func testConfig(position string) *config.Config {
	return &config.Config{
		ChainName:         "Sepolia Testnet",
		RpcUrl:            "https://rpc.example.org",
		ChainId:           11155111,
		NativeCurrency:    config.NativeCurrency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
		BlockExplorerUrls: []string{"https://sepolia.etherscan.io"},
		FaucetUrl:         "https://sepoliafaucet.com",
		Position:          position,
	}
}

func newTestManager(t *testing.T, position string) (*Manager, *session.Manager, *fakeChain) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store, err := model.NewWalletStore(db)
	require.NoError(t, err)

	ch := &fakeChain{}
	sessions := session.NewManager(store)
	return NewManager(testConfig(position), ch, sessions), sessions, ch
}

func TestInitialVisibility(t *testing.T) {
	m, _, _ := newTestManager(t, constant.PositionBottomRight)
	assert.True(t, m.Snapshot().Visible)

	// hidden 布局下初始不可见
	m, _, _ = newTestManager(t, constant.PositionHidden)
	assert.False(t, m.Snapshot().Visible)
}

func TestShowHideToggle(t *testing.T) {
	m, _, _ := newTestManager(t, constant.PositionHidden)

	assert.True(t, m.Show().Visible)
	assert.True(t, m.Show().Visible) // 重复 show 不报错
	assert.False(t, m.Hide().Visible)
	assert.True(t, m.Toggle().Visible)
	assert.False(t, m.Toggle().Visible)
}

func TestDestroyIsIdempotent(t *testing.T) {
	m, sessions, _ := newTestManager(t, constant.PositionBottomRight)
	_, err := sessions.Create(context.Background())
	require.NoError(t, err)

	resp := m.Destroy()
	assert.False(t, resp.Visible)
	// 销毁释放注入点但保留已持久化的钱包
	assert.False(t, sessions.Injected())
	assert.NotNil(t, sessions.Current())

	resp = m.Destroy()
	assert.False(t, resp.Visible)

	// 销毁后 show 不再生效
	assert.False(t, m.Show().Visible)
}

func TestShowForConfirmation(t *testing.T) {
	m, _, _ := newTestManager(t, constant.PositionHidden)
	require.False(t, m.Snapshot().Visible)

	m.ShowForConfirmation()
	assert.True(t, m.Snapshot().Visible)
	assert.True(t, m.Confirming())

	m.ReturnToDefault(0)
	assert.False(t, m.Confirming())
}

func TestScheduleAutoHide(t *testing.T) {
	m, _, _ := newTestManager(t, constant.PositionHidden)
	m.Show()

	m.ScheduleAutoHide(10 * time.Millisecond)
	require.Eventually(t, func() bool {
		return !m.Snapshot().Visible
	}, time.Second, 5*time.Millisecond)
}

func TestBalance(t *testing.T) {
	m, sessions, ch := newTestManager(t, constant.PositionBottomRight)

	_, err := m.Balance(context.Background())
	assert.ErrorIs(t, err, types.ErrNoWallet)

	sess, err := sessions.Create(context.Background())
	require.NoError(t, err)
	ch.balance, _ = new(big.Int).SetString("1500000000000000000", 10)

	resp, err := m.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.Address.Hex(), resp.Address)
	assert.Equal(t, "1.5", resp.Balance)
	assert.Equal(t, "ETH", resp.Symbol)
}

func TestReceive(t *testing.T) {
	m, sessions, _ := newTestManager(t, constant.PositionBottomRight)

	_, err := m.Receive()
	assert.ErrorIs(t, err, types.ErrNoWallet)

	sess, err := sessions.Create(context.Background())
	require.NoError(t, err)

	resp, err := m.Receive()
	require.NoError(t, err)
	assert.Equal(t, sess.Address.Hex(), resp.Address)
	assert.Equal(t, "https://sepoliafaucet.com", resp.FaucetUrl)

	png, err := m.ReceiveQR(0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG 魔数
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestStatusDismisses(t *testing.T) {
	m, _, _ := newTestManager(t, constant.PositionBottomRight)

	m.SetStatus("tx", "Submitting transaction...")
	assert.Equal(t, "Submitting transaction...", m.Snapshot().Status)
	// 自动消失由 StatusDismissDelay 驱动，这里只验证替换逻辑
	m.SetStatus("tx", "✅ Transaction confirmed!")
	assert.Equal(t, "✅ Transaction confirmed!", m.Snapshot().Status)
}
