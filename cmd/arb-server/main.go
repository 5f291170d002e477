package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"arb-client/internal/chain"
	"arb-client/internal/handler"
	"arb-client/internal/server"
	"arb-client/internal/transfer"
	"arb-client/pkg/config"
	"arb-client/pkg/logger"

	"go.uber.org/zap"
)

// 只读查询服务: 余额 / 手续费 / 区块高度 / ERC-20 元数据
// 不提供转账接口, 私钥只在 arb-cli 中使用
func main() {
	// 0. 初始化 Config
	config.Init()
	cfg := config.Global

	// 1. 初始化 Logger
	logger.Init(cfg.App.Env, cfg.App.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. 连接 RPC 节点
	client, err := chain.Dial(ctx, cfg.RPC.URL)
	if err != nil {
		logger.Fatal("连接 RPC 节点失败", zap.String("url", cfg.RPC.URL), zap.Error(err))
	}
	defer client.Close()
	logger.Info("RPC 已连接", zap.String("url", cfg.RPC.URL))

	// 3. 组装 Handler 与路由
	q := handler.NewQueryHandler(client, transfer.GasPolicyFromConfig(cfg.Gas), cfg.Token.Address, cfg.RPC.StepTimeout)
	app := server.New(server.Config{HttpPort: cfg.App.HttpPort}, server.NewHTTPRouter(q))

	// 4. 启动, 收到信号后优雅退出
	if err := app.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
