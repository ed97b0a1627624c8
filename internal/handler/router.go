package handler

import (
	"net/http"
	"time"

	"tryfi/internal/svc"

	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	// provider 请求与确认提交会阻塞到用户操作或回执落地，超时要放得很长
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodPost,
				Path:    "/provider/request",
				Handler: ProviderRequestHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/confirm/approve",
				Handler: ConfirmApproveHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/"),
		rest.WithTimeout(600000*time.Millisecond),
	)

	server.AddRoutes(
		[]rest.Route{
			// --- Provider Event Routes (no-op) ---
			{
				Method:  http.MethodPost,
				Path:    "/provider/on",
				Handler: ProviderOnHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/provider/remove_listener",
				Handler: ProviderRemoveListenerHandler(serverCtx),
			},
			// --- Wallet Routes ---
			{
				Method:  http.MethodPost,
				Path:    "/wallet/create",
				Handler: WalletCreateHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/wallet",
				Handler: WalletGetHandler(serverCtx),
			},
			{
				Method:  http.MethodDelete,
				Path:    "/wallet",
				Handler: WalletDeleteHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/wallet/balance",
				Handler: WalletBalanceHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/wallet/receive",
				Handler: WalletReceiveHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/wallet/receive/qr",
				Handler: WalletReceiveQrHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/transactions",
				Handler: TransactionListHandler(serverCtx),
			},
			// --- Confirmation Routes ---
			{
				Method:  http.MethodGet,
				Path:    "/confirm/pending",
				Handler: ConfirmPendingHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/confirm/reject",
				Handler: ConfirmRejectHandler(serverCtx),
			},
			// --- Widget Routes ---
			{
				Method:  http.MethodGet,
				Path:    "/widget",
				Handler: WidgetStateHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/widget/show",
				Handler: WidgetShowHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/widget/hide",
				Handler: WidgetHideHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/widget/toggle",
				Handler: WidgetToggleHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/widget/destroy",
				Handler: WidgetDestroyHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api/"),
		rest.WithTimeout(30000*time.Millisecond),
	)
}
