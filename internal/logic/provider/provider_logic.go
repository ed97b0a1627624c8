package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"tryfi/internal/constant"
	"tryfi/internal/svc"
	"tryfi/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

type ProviderLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewProviderLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ProviderLogic {
	return &ProviderLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Request dispatches one EIP-1193 style request. Wallet methods are handled
// locally; anything unrecognized is forwarded to the node verbatim.
func (l *ProviderLogic) Request(req *types.ProviderReq) (*types.ProviderResp, error) {
	// 控件销毁后恢复原始 provider 行为：全部透传给节点
	if !l.svcCtx.Sessions.Injected() {
		return l.passthrough(req)
	}

	l.Infof("📡 provider 请求: %s", req.Method)

	// hidden 布局下交互式请求先唤起控件
	if constant.RequiresUI(req.Method) {
		l.svcCtx.Widget.Show()
	}

	switch req.Method {
	case constant.MethodRequestAccounts:
		return l.requestAccounts()
	case constant.MethodAccounts:
		return l.accounts()
	case constant.MethodSendTransaction:
		return l.sendTransaction(req.Params)
	case constant.MethodPersonalSign:
		return l.personalSign(req.Params)
	case constant.MethodSignTypedDataV4:
		return l.signTypedData(req.Params)
	case constant.MethodSign:
		return l.rawSign(req.Params)
	default:
		return l.passthrough(req)
	}
}

// requestAccounts creates the disposable wallet on first call; subsequent
// calls return the same account.
func (l *ProviderLogic) requestAccounts() (*types.ProviderResp, error) {
	sess, err := l.svcCtx.Sessions.Create(l.ctx)
	if err != nil {
		return nil, types.NewRpcError(err)
	}
	return &types.ProviderResp{Result: []string{sess.Address.Hex()}}, nil
}

func (l *ProviderLogic) accounts() (*types.ProviderResp, error) {
	sess := l.svcCtx.Sessions.Current()
	if sess == nil {
		return &types.ProviderResp{Result: []string{}}, nil
	}
	return &types.ProviderResp{Result: []string{sess.Address.Hex()}}, nil
}

func (l *ProviderLogic) sendTransaction(params []json.RawMessage) (*types.ProviderResp, error) {
	if len(params) == 0 {
		return nil, types.NewRpcError(fmt.Errorf("eth_sendTransaction requires a transaction object"))
	}
	var tx types.TxParams
	if err := json.Unmarshal(params[0], &tx); err != nil {
		return nil, types.NewRpcError(fmt.Errorf("invalid transaction params: %w", err))
	}

	hash, err := l.svcCtx.Engine.AwaitTransaction(l.ctx, &tx)
	if err != nil {
		return nil, err
	}
	return &types.ProviderResp{Result: hash}, nil
}

// personalSign expects params as [message, address].
func (l *ProviderLogic) personalSign(params []json.RawMessage) (*types.ProviderResp, error) {
	if len(params) < 2 {
		return nil, types.NewRpcError(fmt.Errorf("personal_sign requires [message, address]"))
	}
	message, err := stringParam(params[0])
	if err != nil {
		return nil, types.NewRpcError(err)
	}
	signer, err := stringParam(params[1])
	if err != nil {
		return nil, types.NewRpcError(err)
	}

	sig, err := l.svcCtx.Engine.AwaitPersonalSign(l.ctx, message, signer)
	if err != nil {
		return nil, err
	}
	return &types.ProviderResp{Result: sig}, nil
}

// signTypedData expects params as [address, typedDataJSON].
func (l *ProviderLogic) signTypedData(params []json.RawMessage) (*types.ProviderResp, error) {
	if len(params) < 2 {
		return nil, types.NewRpcError(fmt.Errorf("eth_signTypedData_v4 requires [address, typedData]"))
	}
	signer, err := stringParam(params[0])
	if err != nil {
		return nil, types.NewRpcError(err)
	}
	// 第二个参数既可能是 JSON 字符串也可能直接是对象
	payload, err := stringParam(params[1])
	if err != nil {
		payload = string(params[1])
	}

	sig, err := l.svcCtx.Engine.AwaitTypedData(l.ctx, payload, signer)
	if err != nil {
		return nil, err
	}
	return &types.ProviderResp{Result: sig}, nil
}

// rawSign expects params as [address, data].
func (l *ProviderLogic) rawSign(params []json.RawMessage) (*types.ProviderResp, error) {
	if len(params) < 2 {
		return nil, types.NewRpcError(fmt.Errorf("eth_sign requires [address, data]"))
	}
	signer, err := stringParam(params[0])
	if err != nil {
		return nil, types.NewRpcError(err)
	}
	data, err := stringParam(params[1])
	if err != nil {
		return nil, types.NewRpcError(err)
	}

	sig, err := l.svcCtx.Engine.AwaitRawSign(l.ctx, data, signer)
	if err != nil {
		return nil, err
	}
	return &types.ProviderResp{Result: sig}, nil
}

// Subscribe and Unsubscribe are the provider's event surface. The shim
// emits no events, so both acknowledge and do nothing.
func (l *ProviderLogic) Subscribe(event string) (*types.ProviderResp, error) {
	l.Infof("忽略事件订阅: %s", event)
	return &types.ProviderResp{Result: true}, nil
}

func (l *ProviderLogic) Unsubscribe(event string) (*types.ProviderResp, error) {
	return &types.ProviderResp{Result: true}, nil
}

func (l *ProviderLogic) passthrough(req *types.ProviderReq) (*types.ProviderResp, error) {
	result, err := l.svcCtx.Chain.Send(l.ctx, req.Method, req.Params)
	if err != nil {
		return nil, types.NewRpcError(err)
	}
	return &types.ProviderResp{Result: result}, nil
}

func stringParam(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("expected a string parameter: %w", err)
	}
	return s, nil
}
