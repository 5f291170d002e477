package address

import (
	"encoding/hex"
	"strings"

	"arb-client/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// HexLength 是 20 字节地址的 hex 字符数 (不含 0x 前缀)
const HexLength = 2 * common.AddressLength

// Parse 将字符串解析为以太坊地址
// 规则:
// 1. 可带或不带 0x 前缀, 去掉前缀后必须正好 40 个 hex 字符
// 2. 全小写或全大写视为未携带校验和, 直接接受
// 3. 大小写混合时必须符合 EIP-55 校验和
func Parse(s string) (common.Address, error) {
	raw := strings.TrimSpace(s)
	body := raw
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		body = body[2:]
	}

	if len(body) != HexLength {
		return common.Address{}, errno.New(errno.ErrInvalidAddress, "%q: want %d hex digits, got %d", s, HexLength, len(body))
	}

	b, err := hex.DecodeString(body)
	if err != nil {
		return common.Address{}, errno.New(errno.ErrInvalidAddress, "%q: not hex encoded", s)
	}

	if isMixedCase(body) && toChecksumAddress(body) != body {
		return common.Address{}, errno.New(errno.ErrInvalidAddress, "%q: checksum mismatch", s)
	}

	return common.BytesToAddress(b), nil
}

// PubKeyToAddress 将公钥字节 (非压缩格式, 65 bytes, 0x04...) 转换为地址
func PubKeyToAddress(pubKeyBytes []byte) (common.Address, error) {
	// 1. 去掉前缀 0x04 (如果存在)
	if len(pubKeyBytes) == 65 && pubKeyBytes[0] == 0x04 {
		pubKeyBytes = pubKeyBytes[1:]
	}
	if len(pubKeyBytes) != 64 {
		return common.Address{}, errno.New(errno.ErrInvalidAddress, "public key must be 64 bytes, got %d", len(pubKeyBytes))
	}

	// 2. Keccak-256 哈希, 取后 20 字节
	hash := keccak256(pubKeyBytes)
	return common.BytesToAddress(hash[12:]), nil
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}

func keccak256(data []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return hash.Sum(nil)
}

// toChecksumAddress 实现 EIP-55 混合大小写校验
func toChecksumAddress(address string) string {
	address = strings.ToLower(address)
	hash := keccak256([]byte(address))
	hexHash := hex.EncodeToString(hash)

	var sb strings.Builder
	for i := 0; i < len(address); i++ {
		char := address[i]
		// 检查 hash 的第 i 位是否 >= 8
		hashByte := hexCharToInt(hexHash[i])
		if hashByte >= 8 {
			sb.WriteString(strings.ToUpper(string(char)))
		} else {
			sb.WriteByte(char)
		}
	}
	return sb.String()
}

func hexCharToInt(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 10
	}
	return 0
}
