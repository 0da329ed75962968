package parser

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFParser 基于 ledongthuc/pdf 抽取 PDF 纯文本
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Parse(data []byte) (text string, err error) {
	// pdf 库在损坏文件上可能 panic，这里兜底转为错误
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf content")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
