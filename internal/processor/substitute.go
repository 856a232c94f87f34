package processor

import (
	"fmt"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Apply 用 replacement 替换 span 覆盖的字符
//
// 第一个片段所在的 run 写入替换值，后续片段的字符被删除；
// 被删空的 run 保留在原位，格式信息不变。
func Apply(p *domain.Paragraph, span domain.Span, replacement string) error {
	if len(span) == 0 {
		return fmt.Errorf("%w: 空片段", domain.ErrSpanNotFound)
	}
	for _, part := range span {
		if part.Run < 0 || part.Run >= len(p.Runs) {
			return fmt.Errorf("%w: run 序号 %d 越界", domain.ErrSpanNotFound, part.Run)
		}
		if part.Start < 0 || part.Length < 0 || part.Start+part.Length > len(p.Runs[part.Run].Text) {
			return fmt.Errorf("%w: run %d 片段 [%d,%d) 越界",
				domain.ErrSpanNotFound, part.Run, part.Start, part.Start+part.Length)
		}
	}

	for i, part := range span {
		text := p.Runs[part.Run].Text
		insert := ""
		if i == 0 {
			insert = replacement
		}
		p.Runs[part.Run].Text = text[:part.Start] + insert + text[part.Start+part.Length:]
	}
	return nil
}

// ApplyImage 将 paragraphs[index] 替换为一张图片，并在其后插入标题段落
//
// 返回新的段落切片，原段落的样式保留，标题段落使用 captionStyle。
func ApplyImage(paragraphs []domain.Paragraph, index int, pic *domain.Picture, caption, captionStyle string) ([]domain.Paragraph, error) {
	if index < 0 || index >= len(paragraphs) {
		return paragraphs, fmt.Errorf("段落序号 %d 越界", index)
	}
	if pic == nil {
		return paragraphs, fmt.Errorf("图片为空")
	}

	paragraphs[index].Runs = []domain.Run{{Picture: pic}}

	captionParagraph := domain.Paragraph{
		Style: captionStyle,
		Runs:  []domain.Run{{Text: caption}},
	}
	return insertParagraph(paragraphs, index+1, captionParagraph), nil
}

func insertParagraph(paragraphs []domain.Paragraph, at int, p domain.Paragraph) []domain.Paragraph {
	out := make([]domain.Paragraph, 0, len(paragraphs)+1)
	out = append(out, paragraphs[:at]...)
	out = append(out, p)
	out = append(out, paragraphs[at:]...)
	return out
}
