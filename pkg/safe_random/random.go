package safe_random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// Reader 是全局共享的加密安全随机源, 测试中可替换
var Reader io.Reader = rand.Reader

// Bytes 读取 n 个随机字节, 随机源失败时返回错误
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("生成随机字节失败: %w", err)
	}
	return b, nil
}

// Hex 返回 n 个随机字节的十六进制编码 (长度 2n)
func Hex(n int) (string, error) {
	b, err := Bytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ID 生成 16 位十六进制的短标识, 用于转账事件的 attempt_id.
// 随机源不可用时退化为全零, 标识只用于关联日志, 不承担安全职责
func ID() string {
	s, err := Hex(8)
	if err != nil {
		return "0000000000000000"
	}
	return s
}
