package parser

import (
	"KnowLink/internal/modules/knowledge/domain/knowledge"
)

// Parser 把某一种文档格式的原始字节解析为纯文本
type Parser interface {
	Parse(data []byte) (string, error)
}

// Registry 按文档类型分发解析器，未注册的类型显式落到纯文本解析器
type Registry struct {
	parsers  map[string]Parser
	fallback Parser
}

func NewRegistry() *Registry {
	text := NewTextParser()
	return &Registry{
		parsers: map[string]Parser{
			knowledge.DocTypePDF:  NewPDFParser(),
			knowledge.DocTypeDoc:  NewDocParser(),
			knowledge.DocTypeText: text,
		},
		fallback: text,
	}
}

// Select 返回文档类型对应的解析器，未映射类型返回默认解析器而不是报错
func (r *Registry) Select(docType string) Parser {
	if p, ok := r.parsers[docType]; ok {
		return p
	}
	return r.fallback
}

// Parse 解析文档内容，解析器报错统一归为 parse 类错误
func (r *Registry) Parse(docType string, data []byte) (string, error) {
	text, err := r.Select(docType).Parse(data)
	if err != nil {
		return "", knowledge.NewParseError(err)
	}
	return text, nil
}
