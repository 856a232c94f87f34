package docx

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// boundParagraph 段落在 DOM 中的位置
type boundParagraph struct {
	part string
	elem *etree.Element
	runs []*etree.Element
}

// Binding 记录文档模型中每个段落对应的 DOM 元素，用于写回修改
type Binding struct {
	pkg        *Package
	paragraphs map[int]*boundParagraph
	nextID     int
	maxDocPrID int
	styles     *styleTable
}

// Load 从文档包构建文档模型
//
// 正文只取 w:body 的直接子元素；节由 w:sectPr 划分，页眉页脚经
// document.xml.rels 解析，被多个节引用的部件只加载一次。
func Load(pkg *Package) (*domain.Document, *Binding, error) {
	xml, err := pkg.Part(mainDocumentPart)
	if err != nil {
		return nil, nil, err
	}
	body := findBody(xml)
	if body == nil {
		return nil, nil, fmt.Errorf("%s 中没有 w:body", mainDocumentPart)
	}

	rels, err := pkg.relationships(mainDocumentPart)
	if err != nil {
		return nil, nil, fmt.Errorf("读取文档关系失败: %w", err)
	}

	b := &Binding{pkg: pkg, paragraphs: make(map[int]*boundParagraph)}
	b.maxDocPrID = maxDocPrID(xml.Root())

	doc := &domain.Document{}
	var sectPrs []*etree.Element
	for _, child := range body.ChildElements() {
		switch child.Tag {
		case "p":
			doc.Body = append(doc.Body, b.bindParagraph(mainDocumentPart, child))
			if pPr := childElement(child, "pPr"); pPr != nil {
				if sp := childElement(pPr, "sectPr"); sp != nil {
					sectPrs = append(sectPrs, sp)
				}
			}
		case "tbl":
			doc.Tables = append(doc.Tables, b.bindTable(mainDocumentPart, child))
		case "sectPr":
			sectPrs = append(sectPrs, child)
		}
	}

	loaded := make(map[string]bool)
	for _, sp := range sectPrs {
		var section domain.Section
		for _, kind := range []string{"headerReference", "footerReference"} {
			for _, ref := range sp.SelectElements(kind) {
				id := ref.SelectAttrValue("r:id", "")
				part, ok := rels[id]
				if !ok {
					slog.Warn("页眉页脚引用无法解析", "id", id, "kind", kind)
					continue
				}
				if loaded[part] {
					continue
				}
				loaded[part] = true

				hf, err := b.bindHeaderFooter(part)
				if err != nil {
					return nil, nil, err
				}
				if kind == "headerReference" {
					section.Headers = append(section.Headers, hf)
				} else {
					section.Footers = append(section.Footers, hf)
				}
			}
		}
		doc.Sections = append(doc.Sections, section)
	}

	slog.Debug("文档已加载",
		"paragraphs", len(doc.Body),
		"tables", len(doc.Tables),
		"sections", len(doc.Sections))
	return doc, b, nil
}

func (b *Binding) bindHeaderFooter(part string) (domain.HeaderFooter, error) {
	xml, err := b.pkg.Part(part)
	if err != nil {
		return domain.HeaderFooter{}, fmt.Errorf("读取页眉页脚 %s 失败: %w", part, err)
	}
	hf := domain.HeaderFooter{Part: part}
	root := xml.Root()
	if root == nil {
		return hf, nil
	}
	b.maxDocPrID = max(b.maxDocPrID, maxDocPrID(root))
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "p":
			hf.Paragraphs = append(hf.Paragraphs, b.bindParagraph(part, child))
		case "tbl":
			hf.Tables = append(hf.Tables, b.bindTable(part, child))
		}
	}
	return hf, nil
}

func (b *Binding) bindTable(part string, tbl *etree.Element) domain.Table {
	var table domain.Table
	for _, tr := range tbl.SelectElements("tr") {
		var row domain.Row
		for _, tc := range tr.SelectElements("tc") {
			var cell domain.Cell
			for _, child := range tc.ChildElements() {
				switch child.Tag {
				case "p":
					cell.Paragraphs = append(cell.Paragraphs, b.bindParagraph(part, child))
				case "tbl":
					cell.Tables = append(cell.Tables, b.bindTable(part, child))
				}
			}
			row.Cells = append(row.Cells, cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func (b *Binding) bindParagraph(part string, p *etree.Element) domain.Paragraph {
	b.nextID++
	bp := &boundParagraph{part: part, elem: p}
	para := domain.Paragraph{ID: b.nextID, Style: paragraphStyle(p)}
	for _, r := range p.SelectElements("r") {
		bp.runs = append(bp.runs, r)
		para.Runs = append(para.Runs, domain.Run{Text: runText(r), Props: runProps(r)})
	}
	b.paragraphs[b.nextID] = bp
	return para
}

// findBody 返回 w:document 下的 w:body
func findBody(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}
	return childElement(root, "body")
}

func childElement(e *etree.Element, tag string) *etree.Element {
	for _, child := range e.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// runText 按顺序展开 run 的文本，w:tab 记为 \t，w:br 与 w:cr 记为 \n
func runText(r *etree.Element) string {
	var sb strings.Builder
	for _, child := range r.ChildElements() {
		switch child.Tag {
		case "t":
			sb.WriteString(child.Text())
		case "tab":
			sb.WriteByte('\t')
		case "br", "cr":
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// runProps 序列化 w:rPr，仅作为不透明的格式标识
func runProps(r *etree.Element) string {
	rPr := childElement(r, "rPr")
	if rPr == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(rPr.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// paragraphStyle 读取 w:pPr/w:pStyle 的 w:val
func paragraphStyle(p *etree.Element) string {
	pPr := childElement(p, "pPr")
	if pPr == nil {
		return ""
	}
	if ps := childElement(pPr, "pStyle"); ps != nil {
		return ps.SelectAttrValue("w:val", "")
	}
	return ""
}

func maxDocPrID(e *etree.Element) int {
	if e == nil {
		return 0
	}
	best := 0
	if e.Tag == "docPr" {
		if id, err := strconv.Atoi(e.SelectAttrValue("id", "")); err == nil {
			best = id
		}
	}
	for _, child := range e.ChildElements() {
		best = max(best, maxDocPrID(child))
	}
	return best
}
