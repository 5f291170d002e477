package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "查询最新区块号",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx, cancel := commandContext(cmd)
		defer cancel()
		client, err := connect(ctx, out)
		if err != nil {
			return err
		}
		defer client.Close()

		sctx, scancel := stepContext(ctx)
		defer scancel()
		n, err := client.BlockNumber(sctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Latest block number: %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(blockCmd)
}
