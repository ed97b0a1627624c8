package handler

import (
	"net/http"

	"tryfi/internal/logic/provider"
	"tryfi/internal/svc"
	"tryfi/internal/types"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// ProviderRequestHandler 处理 EIP-1193 风格的 provider 请求
func ProviderRequestHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ProviderReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := provider.NewProviderLogic(r.Context(), svcCtx)
		resp, err := l.Request(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

type listenerReq struct {
	Event string `json:"event" validate:"required"`
}

// ProviderOnHandler / ProviderRemoveListenerHandler 是事件订阅的空实现
func ProviderOnHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listenerReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := provider.NewProviderLogic(r.Context(), svcCtx)
		resp, err := l.Subscribe(req.Event)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func ProviderRemoveListenerHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req listenerReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := provider.NewProviderLogic(r.Context(), svcCtx)
		resp, err := l.Unsubscribe(req.Event)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
