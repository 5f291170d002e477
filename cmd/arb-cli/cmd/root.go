package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"arb-client/internal/chain"
	"arb-client/pkg/config"
	"arb-client/pkg/errno"
	"arb-client/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	rpcFlag string
	envFile string
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "arb-cli",
	Short: "Arbitrum Sepolia 测试网命令行工具",
	Long: `一个连接 Arbitrum (Sepolia 测试网) JSON-RPC 节点的命令行工具。
支持查询余额、估算 Gas 费、发送 ETH 转账以及只读合约调用。

私钥通过环境变量 PRIVATE_KEY (或 .env 文件) 提供, 也可以用 MNEMONIC 助记词代替。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts := config.DefaultOptions()
		opts.DotEnvFile = envFile
		loaded, err := config.Load(opts)
		if err != nil {
			return errno.Wrap(errno.ErrConfiguration, err, "load config")
		}
		if rpcFlag != "" {
			loaded.RPC.URL = rpcFlag
		}
		cfg = loaded

		logger.Init(cfg.App.Env, cfg.App.LogLevel)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
// 失败时错误写到 stderr, 退出码: 配置错误 2, 其它 1
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\n❌ %v\n", err)
		logger.Sync()
		os.Exit(errno.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "RPC 节点地址 (默认读取 RPC_URL, 否则使用 Arbitrum Sepolia 公共节点)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "读取的 .env 文件, 为空则不读取")
}

// commandContext 在 Ctrl+C / SIGTERM 时取消
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// dialer 可在测试中替换
var dialer = func(ctx context.Context, url string) (chain.Client, error) {
	return chain.Dial(ctx, url)
}

func connect(ctx context.Context, out io.Writer) (chain.Client, error) {
	fmt.Fprintf(out, "正在连接 RPC: %s ...\n", cfg.RPC.URL)
	client, err := dialer(ctx, cfg.RPC.URL)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out, "✓ 连接成功")
	return client, nil
}

// stepContext 给单次查询加上 rpc.step_timeout
func stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.RPC.StepTimeout > 0 {
		return context.WithTimeout(ctx, cfg.RPC.StepTimeout)
	}
	return context.WithCancel(ctx)
}
