package cmd

import (
	"fmt"

	"arb-client/internal/contract"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token [contract]",
	Short: "只读调用 ERC-20 合约的 name / symbol / decimals",
	Long: `对代币合约执行只读调用 (eth_call), 不消耗 Gas。
未指定合约地址时使用 token.address (Arbitrum Sepolia 上的 USDC 测试代币)。`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		token := cfg.Token.Address
		if len(args) == 1 {
			token = args[0]
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		fmt.Fprintln(out, "=== Arbitrum 测试网合约交互演示 ===")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "1. 连接到 Arbitrum Sepolia 测试网...")
		client, err := connect(ctx, out)
		if err != nil {
			return err
		}
		defer client.Close()

		fmt.Fprintln(out, "\n2. 加载合约...")
		c, err := contract.NewQuerier(client).Load(token, contract.ERC20MetadataABI)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ 合约地址: %s\n", c.Address.Hex())
		fmt.Fprintln(out, "✓ ABI 加载成功")

		fmt.Fprintln(out, "\n3. 查询合约信息...")
		sctx, scancel := stepContext(ctx)
		defer scancel()

		fmt.Fprintln(out, "\n📝 调用 name() 方法...")
		name, err := contract.CallView[string](sctx, c, "name")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ 代币名称: %s\n", name)

		fmt.Fprintln(out, "\n📝 调用 symbol() 方法...")
		symbol, err := contract.CallView[string](sctx, c, "symbol")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ 代币符号: %s\n", symbol)

		fmt.Fprintln(out, "\n📝 调用 decimals() 方法...")
		decimals, err := contract.CallView[uint8](sctx, c, "decimals")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ 小数位数: %d\n", decimals)

		fmt.Fprintln(out, "\n✅ 查询成功！")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
