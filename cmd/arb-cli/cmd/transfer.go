package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"arb-client/internal/credential"
	"arb-client/internal/event"
	"arb-client/internal/service/mq"
	"arb-client/internal/transfer"
	"arb-client/pkg/config"
	"arb-client/pkg/database"
	"arb-client/pkg/errno"
	"arb-client/pkg/logger"
	"arb-client/pkg/units"
	"arb-client/pkg/utils/lock"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "发送 ETH 转账 (Arbitrum Sepolia)",
	Long: `从 PRIVATE_KEY 对应的地址向 TO_ADDRESS 转账 AMOUNT ETH。

流程: 查询余额 -> 获取 Gas 价格 -> 估算手续费 -> 校验余额 -> 构建交易
-> 签名 -> 广播 -> 等待收据。余额不足时不会签名也不会广播。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		flags := cmd.Flags()
		if flags.Changed("to") {
			cfg.Wallet.ToAddress, _ = flags.GetString("to")
		}
		if flags.Changed("amount") {
			cfg.Wallet.Amount, _ = flags.GetString("amount")
		}
		if flags.Changed("fee-buffer") {
			cfg.Gas.FeeBufferPercent, _ = flags.GetUint64("fee-buffer")
		}
		if flags.Changed("confirm-timeout") {
			cfg.Confirm.Timeout, _ = flags.GetDuration("confirm-timeout")
		}
		unit, _ := flags.GetString("unit")
		gasLimit, _ := flags.GetUint64("gas-limit")

		fmt.Fprintln(out, "=== Arbitrum 测试网 ETH 转账工具 ===")

		signer, err := credential.Load(cfg.Wallet)
		if err != nil {
			if errors.Is(err, credential.ErrMissing) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s\n\n⚠ 警告: 请勿将私钥硬编码在代码中！\n", credential.Instructions)
			}
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		client, err := connect(ctx, out)
		if err != nil {
			return err
		}
		defer client.Close()

		observers := transfer.Observers{
			newPresenter(out),
			event.NewLogObserver(logger.Named("transfer")),
		}
		producer, err := mq.NewProducer(ctx, cfg)
		if err != nil {
			return err
		}
		if producer != nil {
			defer producer.Close()
			observers = append(observers, event.NewPublisher(producer, cfg.Events.Topic, logger.Named("events")))
		}

		locker, closeLocker, err := nonceLocker(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeLocker()

		o := transfer.NewOrchestrator(client,
			transfer.WithGasPolicy(transfer.GasPolicyFromConfig(cfg.Gas)),
			transfer.WithFeeBuffer(cfg.Gas.FeeBufferPercent),
			transfer.WithConfirmation(cfg.Confirm.Timeout, cfg.Confirm.PollInterval),
			transfer.WithStepTimeout(cfg.RPC.StepTimeout),
			transfer.WithObserver(observers),
			transfer.WithNonceManager(transfer.NewNonceManager(locker, cfg.Lock.TTL)),
			transfer.WithLogger(logger.Named("orchestrator")),
		)

		res, err := o.Transfer(ctx, signer, transfer.Request{
			To:       cfg.Wallet.ToAddress,
			Amount:   cfg.Wallet.Amount,
			Unit:     units.Unit(unit),
			GasLimit: gasLimit,
		})
		if err != nil {
			return fmt.Errorf("转账失败: %w", err)
		}
		printSummary(out, res)
		return nil
	},
}

func printSummary(out io.Writer, res *transfer.Result) {
	link := config.ExplorerTxURL + res.TxHash.Hex()
	switch res.Outcome {
	case transfer.OutcomeConfirmed:
		fmt.Fprintln(out, "\n=== 转账完成 ===")
		fmt.Fprintln(out, "\n✅ 转账成功！")
	case transfer.OutcomeUnconfirmed:
		fmt.Fprintln(out, "\n⚠ 交易已广播, 但在等待时间内没有确认, 它仍可能被打包")
		if res.PollErr != nil {
			fmt.Fprintf(out, "原因: %v\n", res.PollErr)
		}
	}
	fmt.Fprintf(out, "交易哈希: %s\n", res.TxHash.Hex())
	fmt.Fprintf(out, "\n查看交易: %s\n", link)
}

// nonceLocker 按 lock.backend 选择 nonce 锁, 返回的 close 释放锁使用的连接
func nonceLocker(ctx context.Context, cfg *config.Config) (lock.DistributedLock, func(), error) {
	switch cfg.Lock.Backend {
	case "", "local":
		return lock.NewLocalLock(), func() {}, nil
	case "redis":
		rdb, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis nonce lock", zap.String("addr", cfg.Redis.Addr))
		return lock.NewRedisLock(rdb), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, errno.New(errno.ErrConfiguration, "unknown lock.backend %q", cfg.Lock.Backend)
	}
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().String("to", "", "接收地址 (默认 TO_ADDRESS)")
	transferCmd.Flags().String("amount", "", "转账金额 (默认 AMOUNT, 单位见 --unit)")
	transferCmd.Flags().String("unit", string(units.Ether), "金额单位: ether | gwei | wei")
	transferCmd.Flags().Uint64("gas-limit", 0, "覆盖 gas.transfer_limit")
	transferCmd.Flags().Uint64("fee-buffer", 0, "余额校验时在手续费上额外预留的百分比")
	transferCmd.Flags().Duration("confirm-timeout", 2*time.Minute, "等待收据的最长时间")
}
