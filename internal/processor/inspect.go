package processor

import (
	"fmt"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/matcher"
)

// Finding 模板中的一个占位符
type Finding struct {
	Container string
	Paragraph int
	Match     domain.Match
}

// Inspect 按填充时的遍历顺序列出文档中的占位符，不修改文档
func Inspect(doc *domain.Document) []Finding {
	scanner := matcher.NewScanner()
	var findings []Finding

	scan := func(container string, paragraphs []domain.Paragraph) {
		for i := range paragraphs {
			for m := range scanner.Scan(paragraphs[i].Text()) {
				findings = append(findings, Finding{Container: container, Paragraph: i, Match: m})
			}
		}
	}

	var scanTables func(prefix string, tables []domain.Table)
	scanTables = func(prefix string, tables []domain.Table) {
		for t, table := range tables {
			for r, row := range table.Rows {
				for c, cell := range row.Cells {
					container := cellContainer(prefix, t, r, c)
					scan(container, cell.Paragraphs)
					scanTables(container+"/", cell.Tables)
				}
			}
		}
	}

	scan("body", doc.Body)
	for _, section := range doc.Sections {
		for _, hf := range section.Headers {
			scan("header:"+hf.Part, hf.Paragraphs)
			scanTables("header:"+hf.Part+"/", hf.Tables)
		}
		for _, hf := range section.Footers {
			scan("footer:"+hf.Part, hf.Paragraphs)
			scanTables("footer:"+hf.Part+"/", hf.Tables)
		}
	}
	scanTables("", doc.Tables)
	return findings
}

// String 返回便于打印的描述
func (f Finding) String() string {
	switch f.Match.Kind {
	case domain.ImageMatch:
		return fmt.Sprintf("%s 第 %d 段: 图片 %q 标题 %q", f.Container, f.Paragraph+1, f.Match.ImageName, f.Match.Caption)
	default:
		return fmt.Sprintf("%s 第 %d 段: %s -> %s", f.Container, f.Paragraph+1, f.Match.Literal, f.Match.Address)
	}
}
