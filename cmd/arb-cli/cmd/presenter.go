package cmd

import (
	"context"
	"fmt"
	"io"

	"arb-client/internal/transfer"
	"arb-client/pkg/units"

	"github.com/holiman/uint256"
)

// presenter renders transfer events as the numbered console narration.
type presenter struct {
	out io.Writer
}

func newPresenter(out io.Writer) *presenter {
	return &presenter{out: out}
}

func (p *presenter) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

func wei(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return new(uint256.Int)
	}
	return v
}

func (p *presenter) OnEvent(_ context.Context, ev transfer.Event) {
	f := ev.Fields
	switch ev.State {
	case transfer.StateStart:
		p.printf("\n=== 开始转账流程 ===\n")
	case transfer.StateCredentialLoaded:
		p.printf("\n1. 加载钱包...\n✓ 发送地址: %s\n", f[transfer.FieldFrom])
	case transfer.StateRecipientValidated:
		p.printf("\n2. 验证接收地址...\n✓ 接收地址: %s\n", f[transfer.FieldTo])
	case transfer.StateBalanceFetched:
		p.printf("\n3. 检查发送地址余额...\n✓ 当前余额: %s ETH\n", units.FormatEther(wei(f[transfer.FieldBalance])))
	case transfer.StateAmountParsed:
		p.printf("\n4. 转账金额: %s\n", units.Describe(wei(f[transfer.FieldAmount])))
	case transfer.StateGasPriceFetched:
		p.printf("\n5. 获取实时 Gas 价格...\n✓ 当前 Gas 价格: %s Gwei\n", units.FormatGwei(wei(f[transfer.FieldGasPrice])))
	case transfer.StateFeeComputed:
		p.printf("✓ Gas 限额: %s\n✓ 预估 Gas 费: %s ETH\n", f[transfer.FieldGasLimit], units.FormatEther(wei(f[transfer.FieldFee])))
	case transfer.StateFundsValidated:
		p.printf("✓ 余额充足 (需要 %s ETH)\n", units.FormatEther(wei(f[transfer.FieldRequired])))
	case transfer.StateChainIDFetched:
		p.printf("\n6. 准备交易...\n✓ Chain ID: %s\n", f[transfer.FieldChainID])
	case transfer.StateNonceFetched:
		p.printf("✓ Nonce: %s\n", f[transfer.FieldNonce])
	case transfer.StateTransactionBuilt:
		p.printf("✓ 交易已构建\n")
	case transfer.StateSigned:
		p.printf("\n7. 签名并发送交易...\n✓ 交易已签名\n")
	case transfer.StateBroadcast:
		p.printf("✓ 交易已发送！\n✓ 交易哈希: %s\n", f[transfer.FieldTxHash])
	case transfer.StateAwaitingReceipt:
		p.printf("\n8. 等待交易确认...\n")
	case transfer.StateConfirmed:
		status := "成功"
		if f[transfer.FieldStatus] != "1" {
			status = "失败 (交易被回滚)"
		}
		p.printf("✓ 交易已确认！\n  - 区块号: %s\n  - Gas 使用: %s\n  - 状态: %s\n",
			f[transfer.FieldBlockNumber], f[transfer.FieldGasUsed], status)
	case transfer.StateUnconfirmed:
		p.printf("⚠ 交易已发送，但未收到确认收据\n")
	case transfer.StateFailed:
		p.printf("✗ 步骤 %s 之后失败\n", f[transfer.FieldFailedAt])
	}
}
