package knowledge

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// FileParser 文档字节到纯文本的解析器接口
type FileParser interface {
	Parse(data []byte) (string, error)
	Supports(data []byte, contentType string) bool
}

// PDFParser PDF文档解析器
type PDFParser struct{}

func (p *PDFParser) Supports(data []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// Parse 逐页提取文本，单页失败跳过；纯图片PDF会得到空串，由调用方判定
func (p *PDFParser) Parse(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("解析PDF失败: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("获取PDF页数失败: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			continue
		}

		text, err := ex.ExtractText()
		if err != nil {
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// PlainTextParser 纯文本透传解析器，兜底处理非PDF内容
type PlainTextParser struct{}

func (p *PlainTextParser) Supports(data []byte, contentType string) bool {
	return true
}

func (p *PlainTextParser) Parse(data []byte) (string, error) {
	return string(data), nil
}

// TextExtractor 按内容选择解析器，把文档字节转成纯文本
type TextExtractor struct {
	ordered []FileParser
}

// NewTextExtractor 创建提取器，PDF优先，纯文本兜底
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{
		ordered: []FileParser{
			&PDFParser{},
			&PlainTextParser{},
		},
	}
}

// Extract 解析文档字节为文本
func (e *TextExtractor) Extract(data []byte, contentType string) (string, error) {
	for _, parser := range e.ordered {
		if parser.Supports(data, contentType) {
			return parser.Parse(data)
		}
	}
	return "", fmt.Errorf("不支持的文档格式: %s", contentType)
}
