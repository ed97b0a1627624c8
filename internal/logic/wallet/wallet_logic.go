package wallet

import (
	"context"
	"fmt"

	"tryfi/internal/common"
	"tryfi/internal/constant"
	"tryfi/internal/svc"
	"tryfi/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type WalletLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewWalletLogic(ctx context.Context, svcCtx *svc.ServiceContext) *WalletLogic {
	return &WalletLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Create 创建一次性钱包，已存在则直接返回当前会话
func (l *WalletLogic) Create() (*types.WalletResp, error) {
	sess, err := l.svcCtx.Sessions.Create(l.ctx)
	if err != nil {
		return nil, err
	}
	l.Infof("🎉 钱包就绪: %s", sess.Address.Hex())
	return &types.WalletResp{Active: true, Address: sess.Address.Hex()}, nil
}

// Get reports the current session without creating one.
func (l *WalletLogic) Get() (*types.WalletResp, error) {
	sess := l.svcCtx.Sessions.Current()
	if sess == nil {
		return &types.WalletResp{Active: false}, nil
	}
	return &types.WalletResp{Active: true, Address: sess.Address.Hex()}, nil
}

// Delete wipes the session key and the transaction log.
func (l *WalletLogic) Delete() (*types.WalletResp, error) {
	if err := l.svcCtx.Sessions.Destroy(l.ctx); err != nil {
		return nil, err
	}
	l.Info("🗑️ 钱包已删除")
	return &types.WalletResp{Active: false}, nil
}

// Activity returns the transaction log newest-first, formatted for display.
func (l *WalletLogic) Activity() (*types.ActivityResp, error) {
	records, err := l.svcCtx.Store.ListTransactionsDesc(l.ctx)
	if err != nil {
		return nil, err
	}

	items := make([]types.ActivityItem, 0, len(records))
	for _, rec := range records {
		item := types.ActivityItem{
			Hash:        rec.Hash,
			Type:        rec.Type,
			Status:      rec.Status,
			ExplorerUrl: l.svcCtx.Config.ExplorerTxUrl(rec.Hash),
			Timestamp:   rec.Timestamp.Unix(),
		}
		switch rec.Type {
		case constant.TxTypeApproval:
			item.Title = "Token Approval"
			item.Subtitle = "Spender: " + common.ShortenAddress(rec.Spender)
			item.Amount = fmt.Sprintf("%s %s", rec.Amount, rec.TokenSymbol)
		case constant.TxTypeReceive:
			item.Title = "Received " + rec.TokenSymbol
			item.Subtitle = "From: " + common.ShortenAddress(rec.FromAddr)
			item.Amount = fmt.Sprintf("+%s %s", rec.Amount, rec.TokenSymbol)
		default:
			item.Title = "Sent " + rec.TokenSymbol
			item.Subtitle = "To: " + common.ShortenAddress(rec.ToAddr)
			item.Amount = fmt.Sprintf("-%s %s", rec.Amount, rec.TokenSymbol)
		}
		items = append(items, item)
	}
	return &types.ActivityResp{Transactions: items}, nil
}
