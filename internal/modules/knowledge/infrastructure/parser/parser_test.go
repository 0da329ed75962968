package parser

import (
	"archive/zip"
	"bytes"
	"testing"

	"KnowLink/internal/modules/knowledge/domain/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrySelect(t *testing.T) {
	r := NewRegistry()

	assert.IsType(t, &PDFParser{}, r.Select(knowledge.DocTypePDF))
	assert.IsType(t, &DocParser{}, r.Select(knowledge.DocTypeDoc))
	assert.IsType(t, &TextParser{}, r.Select(knowledge.DocTypeText))
	// 未注册的类型落到纯文本解析器
	assert.IsType(t, &TextParser{}, r.Select("xyz"))
}

func TestRegistryParseText(t *testing.T) {
	r := NewRegistry()

	text, err := r.Parse(knowledge.DocTypeText, []byte("hello 知识库"))
	require.NoError(t, err)
	assert.Equal(t, "hello 知识库", text)
}

func TestTextParserDropsInvalidUTF8(t *testing.T) {
	p := NewTextParser()

	text, err := p.Parse([]byte{'o', 'k', 0xff, 0xfe})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestDocParserExtractsDocx(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>第一段</w:t></w:r></w:p>
    <w:p><w:r><w:t>second</w:t></w:r><w:r><w:br/><w:t>line</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(docXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := NewDocParser()
	text, err := p.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "第一段")
	assert.Contains(t, text, "second\nline")
}

func TestDocParserRejectsNonArchive(t *testing.T) {
	p := NewDocParser()

	_, err := p.Parse([]byte("definitely not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a docx archive")
}

func TestDocParserMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("other.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("nothing"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	p := NewDocParser()
	_, err = p.Parse(buf.Bytes())
	require.Error(t, err)
}

func TestPDFParserRejectsGarbage(t *testing.T) {
	p := NewPDFParser()

	_, err := p.Parse([]byte("this is not a pdf"))
	require.Error(t, err)

	_, err = p.Parse(nil)
	require.Error(t, err)
}

func TestRegistryParseWrapsError(t *testing.T) {
	r := NewRegistry()

	_, err := r.Parse(knowledge.DocTypePDF, []byte("broken"))
	require.Error(t, err)
	assert.True(t, knowledge.IsKind(err, knowledge.KindParse))
}
