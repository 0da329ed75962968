package parser

import "strings"

// TextParser 纯文本直通，仅剔除非法 UTF-8 字节
type TextParser struct{}

func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Parse(data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), ""), nil
}
