// Package units converts between wei amounts and their display denominations.
package units

import (
	"fmt"
	"strings"

	"arb-client/pkg/errno"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

type Unit string

// MaxUint256Digits 是 2^256-1 的十进制位数
const MaxUint256Digits = 78

const (
	Wei   Unit = "wei"
	Gwei  Unit = "gwei"
	Ether Unit = "ether"
)

// Decimals 返回单位相对 wei 的小数位数
func (u Unit) Decimals() (int32, error) {
	switch Unit(strings.ToLower(string(u))) {
	case Wei:
		return 0, nil
	case Gwei:
		return 9, nil
	case Ether, "eth", "":
		return 18, nil
	default:
		return 0, errno.New(errno.ErrInvalidAmount, "unknown unit %q", string(u))
	}
}

// Parse 将展示单位的金额字符串 (如 "0.001" ETH) 转换为 wei
// 负数、超过单位精度的小数位、超过 256 位的结果都会被拒绝
func Parse(amount string, unit Unit) (*uint256.Int, error) {
	decimals, err := unit.Decimals()
	if err != nil {
		return nil, err
	}

	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidAmount, err, "%q", amount)
	}
	if d.IsNegative() {
		return nil, errno.New(errno.ErrInvalidAmount, "%q: amount must not be negative", amount)
	}

	if d.IsZero() {
		return new(uint256.Int), nil
	}

	// 在 Shift / BigInt 之前按位数判断, 避免 "1e100000000" 这类输入展开成巨大整数
	exp := int64(d.Exponent()) + int64(decimals)
	digits := int64(d.NumDigits())
	if digits+exp > MaxUint256Digits {
		return nil, errno.New(errno.ErrInvalidAmount, "%q: exceeds 256 bits", amount)
	}
	if exp < 0 && -exp >= digits {
		return nil, errno.New(errno.ErrInvalidAmount, "%q: more than %d decimal places for %s", amount, decimals, unit)
	}

	wei := d.Shift(decimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, errno.New(errno.ErrInvalidAmount, "%q: more than %d decimal places for %s", amount, decimals, unit)
	}

	v, overflow := uint256.FromBig(wei.BigInt())
	if overflow {
		return nil, errno.New(errno.ErrInvalidAmount, "%q: exceeds 256 bits", amount)
	}
	return v, nil
}

// Format 将 wei 转换为指定单位的十进制字符串, 不做舍入
func Format(wei *uint256.Int, unit Unit) string {
	if wei == nil {
		return "0"
	}
	decimals, err := unit.Decimals()
	if err != nil {
		return wei.Dec()
	}
	return decimal.NewFromBigInt(wei.ToBig(), -decimals).String()
}

// FormatEther 等价于 format_units(v, "ether")
func FormatEther(wei *uint256.Int) string {
	return Format(wei, Ether)
}

// FormatGwei 等价于 format_units(v, "gwei")
func FormatGwei(wei *uint256.Int) string {
	return Format(wei, Gwei)
}

// Describe renders "<ether> ETH (<wei> wei)", used by the CLI narration.
func Describe(wei *uint256.Int) string {
	if wei == nil {
		return "0 ETH (0 wei)"
	}
	return fmt.Sprintf("%s ETH (%s wei)", FormatEther(wei), wei.Dec())
}
