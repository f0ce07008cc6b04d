package service

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const slugTokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// sanitizeSlug 规范化公开路径段：小写，空格与下划线转为连字符，去掉其余字符。
func sanitizeSlug(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	lastDash := true
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ', r == '_', r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// randomSlugToken 生成指定长度的随机 slug 片段
func randomSlugToken(length int) string {
	if length <= 0 {
		return ""
	}
	var b strings.Builder
	max := big.NewInt(int64(len(slugTokenAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand 不可用时退回固定字符，避免中断创建流程
			b.WriteByte('0')
			continue
		}
		b.WriteByte(slugTokenAlphabet[n.Int64()])
	}
	return b.String()
}
