package cmd

import (
	"fmt"

	"arb-client/internal/transfer"
	"arb-client/pkg/units"

	"github.com/spf13/cobra"
)

type feeRow struct {
	title string
	limit uint64
}

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "按实时 Gas 价格估算手续费",
	Long: `读取节点当前 Gas 价格, 分别估算基础 ETH 转账 (transfer) 和
合约调用 (contract) 的手续费。Gas 限额取自配置 gas.transfer_limit / gas.contract_limit。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		gasLimit, _ := cmd.Flags().GetUint64("gas-limit")

		ctx, cancel := commandContext(cmd)
		defer cancel()
		client, err := connect(ctx, out)
		if err != nil {
			return err
		}
		defer client.Close()

		policy := transfer.GasPolicyFromConfig(cfg.Gas)
		estimator := transfer.NewFeeEstimator(client)

		fmt.Fprintln(out, "\n正在获取实时 Gas 价格...")
		sctx, scancel := stepContext(ctx)
		defer scancel()
		base, err := estimator.Estimate(sctx, policy.TransferLimit)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "当前 Gas 价格: %s Gwei\n", units.FormatGwei(base.GasPrice))
		fmt.Fprintf(out, "当前 Gas 价格 (wei): %s\n", base.GasPrice.Dec())

		rows := []feeRow{
			{"基础 ETH 转账", policy.TransferLimit},
			{"合约调用", policy.ContractLimit},
		}
		if gasLimit > 0 {
			rows = append(rows, feeRow{"自定义", gasLimit})
		}

		// 同一个价格计算所有行, 不再重复请求
		for _, row := range rows {
			fee, err := transfer.FeeFor(base.GasPrice, row.limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n--- %s Gas 费计算 ---\n", row.title)
			fmt.Fprintf(out, "Gas 价格: %s Gwei\n", units.FormatGwei(base.GasPrice))
			fmt.Fprintf(out, "Gas 限额: %d\n", row.limit)
			fmt.Fprintf(out, "预估 Gas 费: %s ETH\n", units.FormatEther(fee))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feeCmd)
	feeCmd.Flags().Uint64("gas-limit", 0, "额外计算一个自定义 Gas 限额")
}
