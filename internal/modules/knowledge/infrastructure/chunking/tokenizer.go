package chunking

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding 与 OpenAI embedding 系列模型一致的 BPE 编码
const DefaultEncoding = "cl100k_base"

// TokenCodec 文本与 token 序列的互转，切片尺寸以它的口径为准
type TokenCodec interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// Tokenizer 基于 tiktoken 的 TokenCodec 实现
type Tokenizer struct {
	tke *tiktoken.Tiktoken
}

var _ TokenCodec = (*Tokenizer)(nil)

// NewTokenizer 先按编码名解析，失败时回退按模型名解析
func NewTokenizer(modelOrEncoding string) (*Tokenizer, error) {
	name := strings.TrimSpace(modelOrEncoding)
	if name == "" {
		name = DefaultEncoding
	}

	tke, err := tiktoken.GetEncoding(name)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(name)
		if err != nil {
			return nil, fmt.Errorf("resolve tokenizer for %q: %w", name, err)
		}
	}
	return &Tokenizer{tke: tke}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.tke.Encode(text, nil, nil)
}

func (t *Tokenizer) Decode(tokens []int) string {
	return t.tke.Decode(tokens)
}

func (t *Tokenizer) Count(text string) int {
	return len(t.Encode(text))
}
