package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"tryfi/internal/constant"
	"tryfi/internal/model"
	"tryfi/internal/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	evmTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/zeromicro/go-zero/core/logx"
)

// Chain is the node-facing surface the rest of the wallet consumes.
type Chain interface {
	GetBalance(ctx context.Context, addr common.Address) *big.Int
	TokenBalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	GetTokenInfo(ctx context.Context, token common.Address) types.TokenInfo
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error)
	SendSigned(ctx context.Context, tx *evmTypes.Transaction) error
	WaitForReceipt(ctx context.Context, hash common.Hash) (*evmTypes.Receipt, error)
	Send(ctx context.Context, method string, params []json.RawMessage) (json.RawMessage, error)
	ChainId() int64
	Close()
}

// ethBackend is the slice of ethclient.Client the wallet uses.
type ethBackend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *evmTypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*evmTypes.Receipt, error)
}

// rpcCaller is the generic passthrough surface (rpc.Client).
type rpcCaller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Client wraps a JSON-RPC connection to the configured network.
type Client struct {
	eth     ethBackend
	rpc     rpcCaller
	store   model.WalletStore
	chainId int64
	closeFn func()
	now     func() time.Time
	logx.Logger
}

// Dial connects to the configured RPC endpoint.
func Dial(ctx context.Context, rpcUrl string, chainId int64, store model.WalletStore) (*Client, error) {
	rc, err := rpc.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, err
	}
	ec := ethclient.NewClient(rc)
	return &Client{
		eth:     ec,
		rpc:     rc,
		store:   store,
		chainId: chainId,
		closeFn: ec.Close,
		now:     time.Now,
		Logger:  logx.WithContext(ctx),
	}, nil
}

// newClient 供测试注入假后端
func newClient(eth ethBackend, rc rpcCaller, store model.WalletStore, chainId int64) *Client {
	return &Client{
		eth:     eth,
		rpc:     rc,
		store:   store,
		chainId: chainId,
		closeFn: func() {},
		now:     time.Now,
		Logger:  logx.WithContext(context.Background()),
	}
}

func (c *Client) ChainId() int64 { return c.chainId }

func (c *Client) Close() { c.closeFn() }

// GetBalance returns the native balance, or zero on any error. It never
// fails: the balance display must keep rendering when the node is flaky.
func (c *Client) GetBalance(ctx context.Context, addr common.Address) *big.Int {
	bal, err := c.eth.BalanceAt(ctx, addr, nil)
	if err != nil {
		c.Errorf("查询余额失败 for %s: %v", addr.Hex(), err)
		return new(big.Int)
	}
	return bal
}

// TokenBalanceOf calls balanceOf(owner) on the token contract.
func (c *Client) TokenBalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data := append(append([]byte{}, constant.SelectorBalanceOf...), common.LeftPadBytes(owner.Bytes(), 32)...)
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(out), nil
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.eth.EstimateGas(ctx, msg)
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.eth.SuggestGasPrice(ctx)
}

func (c *Client) PendingNonceAt(ctx context.Context, addr common.Address) (uint64, error) {
	return c.eth.PendingNonceAt(ctx, addr)
}

// SendSigned broadcasts an already-signed transaction. Errors propagate.
func (c *Client) SendSigned(ctx context.Context, tx *evmTypes.Transaction) error {
	return c.eth.SendTransaction(ctx, tx)
}

// WaitForReceipt polls for the transaction receipt until it lands or the
// wait deadline passes. Once a transaction is broadcast there is no
// cancelling it; only this wait is bounded.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*evmTypes.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, constant.ReceiptWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(constant.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := c.eth.TransactionReceipt(ctx, hash)
			if err != nil {
				if err == ethereum.NotFound {
					c.Infof("交易尚未确认，继续等待: %s", hash.Hex())
					continue
				}
				return nil, err
			}
			return receipt, nil
		}
	}
}

// Send forwards a method the shim does not special-case to the node,
// passing its result or error through unchanged.
func (c *Client) Send(ctx context.Context, method string, params []json.RawMessage) (json.RawMessage, error) {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = p
	}
	var result json.RawMessage
	if err := c.rpc.CallContext(ctx, &result, method, args...); err != nil {
		return nil, err
	}
	return result, nil
}
