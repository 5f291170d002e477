package bip39

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicService 提供助记词校验与种子派生
type MnemonicService struct{}

// NewMnemonicService 创建一个新的助记词服务实例
func NewMnemonicService() *MnemonicService {
	return &MnemonicService{}
}

// Normalize 去掉多余空白, 统一为单空格分隔的小写单词
func Normalize(mnemonic string) string {
	return strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
}

// ValidateMnemonic 验证助记词是否有效 (词表 + 校验和)
func (s *MnemonicService) ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(Normalize(mnemonic))
}

// MnemonicToSeed 将助记词转换为 BIP-39 种子。
// password 为可选的 passphrase, 不需要时传 ""。
func (s *MnemonicService) MnemonicToSeed(mnemonic string, password string) []byte {
	return bip39.NewSeed(Normalize(mnemonic), password)
}

// SeedFromMnemonic 校验后再派生种子, 无效助记词返回错误
func (s *MnemonicService) SeedFromMnemonic(mnemonic string, password string) ([]byte, error) {
	normalized := Normalize(mnemonic)
	seed, err := bip39.NewSeedWithErrorChecking(normalized, password)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return seed, nil
}
