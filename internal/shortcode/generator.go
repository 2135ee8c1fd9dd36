package shortcode

import (
	"crypto/rand"
	"math/big"
)

const (
	// Charset 包含用于生成短码的所有 URL 安全字符
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"
	// CodeLength 是生成的短码的长度，64^6 约有 687 亿种组合
	CodeLength = 6
)

// Generator 负责生成随机短码
// 短码的全局唯一性由数据库的唯一约束保证，生成器本身不查库
type Generator struct {
	charset string
	length  int
}

// NewGenerator 创建一个新的短码生成器实例
func NewGenerator() *Generator {
	return &Generator{
		charset: Charset,
		length:  CodeLength,
	}
}

// Generate 使用加密安全的随机数生成器生成一个定长短码
func (g *Generator) Generate() (string, error) {
	b := make([]byte, g.length)
	max := big.NewInt(int64(len(g.charset)))
	for i := range b {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = g.charset[num.Int64()]
	}
	return string(b), nil
}
