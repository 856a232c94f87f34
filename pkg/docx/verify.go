package docx

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	nd "github.com/nguyenthenguyen/docx"

	"github.com/allanpk716/docx_filler/internal/domain"
)

var (
	xmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	xmlTabPattern   = regexp.MustCompile(`<w:tab(\s[^>]*)?/>`)
	xmlBreakPattern = regexp.MustCompile(`<w:(br|cr)(\s[^>]*)?/>`)
)

// VerifyOutput 重新打开已写出的文档，返回仍残留的占位符
//
// 正文经 nguyenthenguyen/docx 读取，页眉页脚按 document.xml.rels 中的
// 关系顺序逐个检查。
func VerifyOutput(path string, scanner domain.PlaceholderScanner) ([]string, error) {
	reader, err := nd.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("重新打开输出文档失败: %w", err)
	}
	defer reader.Close()

	residual := scanParagraphs(reader.Editable().GetContent(), scanner, nil)

	pkg, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("重新打开输出文档失败: %w", err)
	}
	parts, err := pkg.relationshipTargets(mainDocumentPart, relTypeHeader, relTypeFooter)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		raw, err := pkg.RawPart(part)
		if err != nil {
			return nil, err
		}
		residual = scanParagraphs(string(raw), scanner, residual)
	}
	return residual, nil
}

func scanParagraphs(content string, scanner domain.PlaceholderScanner, residual []string) []string {
	for _, text := range flattenParagraphs(content) {
		for _, m := range scanner.FindMatches(text) {
			residual = append(residual, m.Literal)
		}
	}
	return residual
}

// flattenParagraphs 按 </w:p> 切分部件 XML 并去掉标签，w:tab 与 w:br 保留为空白
func flattenParagraphs(content string) []string {
	var out []string
	for _, chunk := range strings.Split(content, "</w:p>") {
		chunk = xmlTabPattern.ReplaceAllString(chunk, "\t")
		chunk = xmlBreakPattern.ReplaceAllString(chunk, "\n")
		text := html.UnescapeString(xmlTagPattern.ReplaceAllString(chunk, ""))
		if strings.TrimSpace(text) != "" {
			out = append(out, text)
		}
	}
	return out
}
