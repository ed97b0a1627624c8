package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tryfi/internal/config"
	"tryfi/internal/handler"
	"tryfi/internal/svc"
	"tryfi/internal/types"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"
)

var configFile = flag.String("f", "etc/tryfi.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)
	if err := c.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()

	// 钱包类错误以 JSON-RPC 错误对象 {code, message} 返回给 dApp
	httpx.SetErrorHandlerCtx(func(ctx context.Context, err error) (int, any) {
		var rpcErr *types.RpcError
		if errors.As(err, &rpcErr) {
			return http.StatusOK, map[string]any{"error": rpcErr}
		}
		return http.StatusBadRequest, map[string]string{"error": err.Error()}
	})

	ctx := svc.NewServiceContext(c)
	defer ctx.Stop()

	handler.RegisterHandlers(server, ctx)

	// 优雅退出
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		server.Stop()
	}()

	fmt.Printf("Starting tryfi wallet service at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
