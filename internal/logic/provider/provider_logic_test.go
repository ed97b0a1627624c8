package provider

import (
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"tryfi/internal/config"
	"tryfi/internal/constant"
	"tryfi/internal/logic/confirm"
	"tryfi/internal/logic/session"
	"tryfi/internal/logic/widget"
	"tryfi/internal/model"
	"tryfi/internal/svc"
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
	sendCalls []string
}

func (f *fakeChain) GetBalance(ctx context.Context, addr common.Address) *big.Int {
	return big.NewInt(0)
}

func (f *fakeChain) TokenBalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeChain) GetTokenInfo(ctx context.Context, token common.Address) types.TokenInfo {
	return types.TokenInfo{Symbol: "TKN", Name: "Test Token", Decimals: 18}
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (f *fakeChain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeChain) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return 0, nil
}

func (f *fakeChain) SendSigned(ctx context.Context, tx *evmTypes.Transaction) error { return nil }

func (f *fakeChain) WaitForReceipt(ctx context.Context, hash common.Hash) (*evmTypes.Receipt, error) {
	return &evmTypes.Receipt{Status: evmTypes.ReceiptStatusSuccessful, TxHash: hash}, nil
}

func (f *fakeChain) Send(ctx context.Context, method string, params []json.RawMessage) (json.RawMessage, error) {
	f.sendCalls = append(f.sendCalls, method)
	return json.RawMessage(`"0x10"`), nil
}

func (f *fakeChain) ChainId() int64 { return 11155111 }

func (f *fakeChain) Close() {}

func newTestSvc(t *testing.T) (*svc.ServiceContext, *fakeChain) {
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
		Position:          constant.PositionBottomRight,
	}

	ch := &fakeChain{}
	sessions := session.NewManager(store)
	require.NoError(t, sessions.Load(context.Background()))
	w := widget.NewManager(&cfg, ch, sessions)
	engine := confirm.NewEngine(&cfg, ch, store, sessions, w)

	return &svc.ServiceContext{
		Config:   cfg,
		Store:    store,
		Chain:    ch,
		Sessions: sessions,
		Widget:   w,
		Engine:   engine,
	}, ch
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestAccountsWithoutSession(t *testing.T) {
	svcCtx, _ := newTestSvc(t)
	l := NewProviderLogic(context.Background(), svcCtx)

	resp, err := l.Request(&types.ProviderReq{Method: "eth_accounts"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, resp.Result)
}

func TestRequestAccountsCreatesWallet(t *testing.T) {
	svcCtx, _ := newTestSvc(t)
	l := NewProviderLogic(context.Background(), svcCtx)

	first, err := l.Request(&types.ProviderReq{Method: "eth_requestAccounts"})
	require.NoError(t, err)
	accounts := first.Result.([]string)
	require.Len(t, accounts, 1)

	// 再次调用返回同一账户
	second, err := l.Request(&types.ProviderReq{Method: "eth_requestAccounts"})
	require.NoError(t, err)
	assert.Equal(t, accounts, second.Result.([]string))

	// eth_accounts 也返回该账户
	resp, err := l.Request(&types.ProviderReq{Method: "eth_accounts"})
	require.NoError(t, err)
	assert.Equal(t, accounts, resp.Result.([]string))
}

func TestUnknownMethodPassesThrough(t *testing.T) {
	svcCtx, ch := newTestSvc(t)
	l := NewProviderLogic(context.Background(), svcCtx)

	resp, err := l.Request(&types.ProviderReq{Method: "eth_blockNumber"})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`"0x10"`), resp.Result)
	assert.Equal(t, []string{"eth_blockNumber"}, ch.sendCalls)
}

func TestRestoredProviderForwardsEverything(t *testing.T) {
	svcCtx, ch := newTestSvc(t)
	svcCtx.Sessions.Restore()
	l := NewProviderLogic(context.Background(), svcCtx)

	// 归还注入点后连钱包方法也透传
	_, err := l.Request(&types.ProviderReq{Method: "eth_requestAccounts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eth_requestAccounts"}, ch.sendCalls)
}

func TestSendTransactionEndToEnd(t *testing.T) {
	svcCtx, _ := newTestSvc(t)
	l := NewProviderLogic(context.Background(), svcCtx)

	_, err := l.Request(&types.ProviderReq{Method: "eth_requestAccounts"})
	require.NoError(t, err)

	out := make(chan *types.ProviderResp, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := l.Request(&types.ProviderReq{
			Method: "eth_sendTransaction",
			Params: []json.RawMessage{raw(`{"to":"0x1111111111111111111111111111111111111111","value":"0x1"}`)},
		})
		if err != nil {
			errCh <- err
			return
		}
		out <- resp
	}()

	require.Eventually(t, func() bool {
		return svcCtx.Engine.Pending().Pending
	}, 2*time.Second, 5*time.Millisecond)

	confirmResp, err := svcCtx.Engine.Confirm(context.Background())
	require.NoError(t, err)

	select {
	case resp := <-out:
		assert.Equal(t, confirmResp.TxHash, resp.Result)
	case err := <-errCh:
		t.Fatalf("provider request failed: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("provider request did not resolve")
	}
}

func TestPersonalSignRejected(t *testing.T) {
	svcCtx, _ := newTestSvc(t)
	l := NewProviderLogic(context.Background(), svcCtx)

	_, err := l.Request(&types.ProviderReq{Method: "eth_requestAccounts"})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := l.Request(&types.ProviderReq{
			Method: "personal_sign",
			Params: []json.RawMessage{raw(`"hello"`), raw(`"0x1111111111111111111111111111111111111111"`)},
		})
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		return svcCtx.Engine.Pending().Pending
	}, 2*time.Second, 5*time.Millisecond)

	_, err = svcCtx.Engine.Reject(context.Background())
	require.NoError(t, err)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, types.ErrUserRejected)
	case <-time.After(2 * time.Second):
		t.Fatal("provider request did not resolve")
	}
}

func TestSendTransactionWithoutWallet(t *testing.T) {
	svcCtx, _ := newTestSvc(t)
	l := NewProviderLogic(context.Background(), svcCtx)

	_, err := l.Request(&types.ProviderReq{
		Method: "eth_sendTransaction",
		Params: []json.RawMessage{raw(`{"to":"0x1111111111111111111111111111111111111111"}`)},
	})
	assert.ErrorIs(t, err, types.ErrNoWallet)
}

func TestMalformedParams(t *testing.T) {
	svcCtx, _ := newTestSvc(t)
	l := NewProviderLogic(context.Background(), svcCtx)

	_, err := l.Request(&types.ProviderReq{Method: "eth_sendTransaction"})
	require.Error(t, err)

	_, err = l.Request(&types.ProviderReq{
		Method: "personal_sign",
		Params: []json.RawMessage{raw(`"only one"`)},
	})
	require.Error(t, err)

	_, err = l.Request(&types.ProviderReq{
		Method: "personal_sign",
		Params: []json.RawMessage{raw(`123`), raw(`"0xaddr"`)},
	})
	require.Error(t, err)
}
