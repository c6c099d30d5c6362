package knowledge

import (
	"fmt"
	"strings"
)

// Chunk 表示分块后的文本单元，ID在单个文档内从0起连续递增
type Chunk struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Chunker 段落级文本分块器
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker 创建分块器
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Split 将文本按空行切分为段落后聚合成chunk。
// 段落永远不会被拆进两个chunk；缓冲区超过chunkSize时落盘，
// 并把末尾 overlap/10 个词作为下一个chunk的种子。
// 空白输入返回nil，调用方应视为文档不可用。
func (c *Chunker) Split(text string) []Chunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []Chunk
	var current string

	flush := func() {
		trimmed := strings.TrimSpace(current)
		if trimmed == "" {
			return
		}
		id := len(chunks)
		chunks = append(chunks, Chunk{
			ID:     id,
			Text:   trimmed,
			Source: fmt.Sprintf("chunk_%d", id),
		})
	}

	overlapWords := c.overlap / 10

	for _, paragraph := range paragraphs {
		if len(current)+len(paragraph) > c.chunkSize && current != "" {
			flush()

			// 取上一个缓冲区末尾若干词作为重叠种子
			words := strings.Fields(current)
			overlapText := ""
			if overlapWords > 0 && len(words) > overlapWords {
				overlapText = strings.Join(words[len(words)-overlapWords:], " ")
			}
			if overlapText != "" {
				current = overlapText + " " + paragraph
			} else {
				current = paragraph
			}
			continue
		}

		if current == "" {
			current = paragraph
		} else {
			current += "\n\n" + paragraph
		}
	}

	flush()
	return chunks
}

// splitParagraphs 按空行切分并去掉空段落
func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
