package wallet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tryfi/internal/config"
	"tryfi/internal/constant"
	"tryfi/internal/logic/session"
	"tryfi/internal/model"
	"tryfi/internal/svc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestSvc(t *testing.T) *svc.ServiceContext {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	store, err := model.NewWalletStore(db)
	require.NoError(t, err)

	cfg := config.Config{
		ChainName:         "Sepolia Testnet",
		RpcUrl:            "https://rpc.example.org",
		ChainId:           11155111,
		NativeCurrency:    config.NativeCurrency{Name: "Sepolia Ether", Symbol: "ETH", Decimals: 18},
		BlockExplorerUrls: []string{"https://sepolia.etherscan.io"},
	}

	return &svc.ServiceContext{
		Config:   cfg,
		Store:    store,
		Sessions: session.NewManager(store),
	}
}

func TestWalletLifecycle(t *testing.T) {
	ctx := context.Background()
	svcCtx := newTestSvc(t)
	l := NewWalletLogic(ctx, svcCtx)

	resp, err := l.Get()
	require.NoError(t, err)
	assert.False(t, resp.Active)

	created, err := l.Create()
	require.NoError(t, err)
	assert.True(t, created.Active)
	require.NotEmpty(t, created.Address)

	// Create 幂等
	again, err := l.Create()
	require.NoError(t, err)
	assert.Equal(t, created.Address, again.Address)

	deleted, err := l.Delete()
	require.NoError(t, err)
	assert.False(t, deleted.Active)

	resp, err = l.Get()
	require.NoError(t, err)
	assert.False(t, resp.Active)
}

func TestDeleteClearsTransactionLog(t *testing.T) {
	ctx := context.Background()
	svcCtx := newTestSvc(t)
	l := NewWalletLogic(ctx, svcCtx)

	_, err := l.Create()
	require.NoError(t, err)
	require.NoError(t, svcCtx.Store.AppendTransaction(ctx, &model.TransactionRecord{
		Hash: "0xabc", Type: constant.TxTypeSend, Status: constant.TxStatusConfirmed, Timestamp: time.Now(),
	}))

	_, err = l.Delete()
	require.NoError(t, err)

	activity, err := l.Activity()
	require.NoError(t, err)
	assert.Empty(t, activity.Transactions)
}

func TestActivityFormatting(t *testing.T) {
	ctx := context.Background()
	svcCtx := newTestSvc(t)
	l := NewWalletLogic(ctx, svcCtx)

	base := time.Now()
	require.NoError(t, svcCtx.Store.AppendTransaction(ctx, &model.TransactionRecord{
		Hash:        "0x1",
		Type:        constant.TxTypeSend,
		ToAddr:      "0x123456789abcdef0123456789abcdef012abcdef",
		Amount:      "1.5",
		TokenSymbol: "ETH",
		Status:      constant.TxStatusConfirmed,
		Timestamp:   base,
	}))
	require.NoError(t, svcCtx.Store.AppendTransaction(ctx, &model.TransactionRecord{
		Hash:        "0x2",
		Type:        constant.TxTypeApproval,
		Spender:     "0xcccccccccccccccccccccccccccccccccccccccc",
		Amount:      "Unlimited",
		TokenSymbol: "TKN",
		Status:      constant.TxStatusPending,
		Timestamp:   base.Add(time.Second),
	}))
	require.NoError(t, svcCtx.Store.AppendTransaction(ctx, &model.TransactionRecord{
		Hash:        "0x3",
		Type:        constant.TxTypeReceive,
		FromAddr:    "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Amount:      "10",
		TokenSymbol: "ETH",
		Status:      constant.TxStatusConfirmed,
		Timestamp:   base.Add(2 * time.Second),
	}))

	resp, err := l.Activity()
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 3)

	// 倒序：最新的在最前
	recv := resp.Transactions[0]
	assert.Equal(t, "Received ETH", recv.Title)
	assert.Equal(t, "From: 0xaaaa...aaaa", recv.Subtitle)
	assert.Equal(t, "+10 ETH", recv.Amount)

	approval := resp.Transactions[1]
	assert.Equal(t, "Token Approval", approval.Title)
	assert.Equal(t, "Spender: 0xcccc...cccc", approval.Subtitle)
	assert.Equal(t, "Unlimited TKN", approval.Amount)
	assert.Equal(t, "pending", approval.Status)

	sent := resp.Transactions[2]
	assert.Equal(t, "Sent ETH", sent.Title)
	assert.Equal(t, "To: 0x1234...cdef", sent.Subtitle)
	assert.Equal(t, "-1.5 ETH", sent.Amount)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0x1", sent.ExplorerUrl)
}
