package cmd

import (
	"fmt"

	"arb-client/pkg/address"
	"arb-client/pkg/units"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "查询地址的 ETH 余额",
	Long:  `查询地址余额。未指定地址时使用 TO_ADDRESS (默认测试地址)。`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		target := cfg.Wallet.ToAddress
		if len(args) == 1 {
			target = args[0]
		}

		addr, err := address.Parse(target)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		client, err := connect(ctx, out)
		if err != nil {
			return err
		}
		defer client.Close()

		fmt.Fprintf(out, "正在查询地址 %s 的余额...\n", addr.Hex())
		sctx, scancel := stepContext(ctx)
		defer scancel()
		balance, err := client.Balance(sctx, addr)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "余额: %s ETH\n", units.FormatEther(balance))
		fmt.Fprintf(out, "余额 (wei): %s\n", balance.Dec())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
