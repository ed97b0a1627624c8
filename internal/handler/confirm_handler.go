package handler

import (
	"net/http"

	"tryfi/internal/svc"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// ConfirmPendingHandler 查询当前待确认操作
func ConfirmPendingHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.OkJsonCtx(r.Context(), w, svcCtx.Engine.Pending())
	}
}

// ConfirmApproveHandler 用户点击确认。交易类操作会阻塞到回执落地。
func ConfirmApproveHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svcCtx.Engine.Confirm(r.Context())
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

// ConfirmRejectHandler 用户点击拒绝
func ConfirmRejectHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svcCtx.Engine.Reject(r.Context())
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
