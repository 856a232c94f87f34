package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Apply 将文档模型的修改写回 DOM
//
// 已绑定段落按 run 逐个回写文本；承载新图片的段落重建为单个 drawing run；
// ID 为 0 的段落作为新段落插入到前一个段落之后。
func (b *Binding) Apply(doc *domain.Document) error {
	if err := b.applyParagraphs(doc.Body); err != nil {
		return err
	}
	for _, section := range doc.Sections {
		for _, hf := range append(append([]domain.HeaderFooter(nil), section.Headers...), section.Footers...) {
			if err := b.applyParagraphs(hf.Paragraphs); err != nil {
				return err
			}
			if err := b.applyTables(hf.Tables); err != nil {
				return err
			}
		}
	}
	return b.applyTables(doc.Tables)
}

func (b *Binding) applyTables(tables []domain.Table) error {
	for _, t := range tables {
		for _, row := range t.Rows {
			for _, cell := range row.Cells {
				if err := b.applyParagraphs(cell.Paragraphs); err != nil {
					return err
				}
				if err := b.applyTables(cell.Tables); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *Binding) applyParagraphs(paragraphs []domain.Paragraph) error {
	var prev *etree.Element
	var part string

	for i := range paragraphs {
		p := &paragraphs[i]
		if p.ID == 0 {
			if prev == nil {
				return fmt.Errorf("新段落 %d 没有可插入的位置", i)
			}
			elem := b.buildParagraph(p)
			insertAfter(prev.Parent(), prev, elem)
			b.pkg.MarkDirty(part)
			prev = elem
			continue
		}

		bp, ok := b.paragraphs[p.ID]
		if !ok {
			return fmt.Errorf("段落 %d 未绑定", p.ID)
		}
		prev, part = bp.elem, bp.part

		if pic := newPicture(p); pic != nil {
			if err := b.rebuildWithPicture(bp, pic); err != nil {
				return err
			}
			continue
		}
		changed, err := writeRuns(bp, p.Runs)
		if err != nil {
			return fmt.Errorf("回写段落 %d 失败: %w", p.ID, err)
		}
		if changed {
			b.pkg.MarkDirty(bp.part)
		}
	}
	return nil
}

// newPicture 段落是否被替换为一张待嵌入的图片
func newPicture(p *domain.Paragraph) *domain.Picture {
	if len(p.Runs) == 1 && p.Runs[0].Picture != nil && p.Runs[0].Picture.Path != "" {
		return p.Runs[0].Picture
	}
	return nil
}

// writeRuns 回写 run 文本，run 数量必须与加载时一致
func writeRuns(bp *boundParagraph, runs []domain.Run) (bool, error) {
	if len(runs) != len(bp.runs) {
		return false, fmt.Errorf("run 数量由 %d 变为 %d", len(bp.runs), len(runs))
	}
	changed := false
	for j, r := range runs {
		if runText(bp.runs[j]) == r.Text {
			continue
		}
		setRunText(bp.runs[j], r.Text)
		changed = true
	}
	return changed, nil
}

// setRunText 按新文本回写 run
//
// \t 对应 w:tab，\n 对应 w:br。新文本中的制表符和换行与原有元素一致时，
// 原有 w:tab、w:br 和其他子元素保持原位，只改写其间的 w:t；
// 否则在第一个文本元素处按顺序重建，原有的 w:tab、w:br 尽量复用。
func setRunText(r *etree.Element, text string) {
	segments, breaks := splitRunText(text)

	var controls []*etree.Element
	gaps := make(map[int][]*etree.Element)
	for _, child := range r.ChildElements() {
		switch child.Tag {
		case "t":
			gaps[len(controls)] = append(gaps[len(controls)], child)
		case "tab", "br", "cr":
			controls = append(controls, child)
		}
	}
	if !sameBreaks(controls, breaks) {
		rebuildRunText(r, segments, breaks, controls)
		return
	}

	for i, segment := range segments {
		if existing := gaps[i]; len(existing) > 0 {
			setTextContent(existing[0], segment)
			for _, extra := range existing[1:] {
				r.RemoveChild(extra)
			}
			continue
		}
		if segment == "" {
			continue
		}
		t := newText(segment)
		switch {
		case i < len(controls):
			r.InsertChildAt(controls[i].Index(), t)
		case len(controls) > 0:
			insertAfter(r, controls[i-1], t)
		default:
			r.AddChild(t)
		}
	}
}

// splitRunText 按 \t 和 \n 切分文本，len(segments) == len(breaks)+1
func splitRunText(text string) (segments []string, breaks []byte) {
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\t' || text[i] == '\n' {
			segments = append(segments, text[start:i])
			breaks = append(breaks, text[i])
			start = i + 1
		}
	}
	return append(segments, text[start:]), breaks
}

func controlChar(e *etree.Element) byte {
	if e.Tag == "tab" {
		return '\t'
	}
	return '\n'
}

func sameBreaks(controls []*etree.Element, breaks []byte) bool {
	if len(controls) != len(breaks) {
		return false
	}
	for i, c := range controls {
		if controlChar(c) != breaks[i] {
			return false
		}
	}
	return true
}

// rebuildRunText 移除 run 中全部文本元素后按顺序重建
func rebuildRunText(r *etree.Element, segments []string, breaks []byte, controls []*etree.Element) {
	at := -1
	reuse := make(map[byte][]*etree.Element)
	for _, child := range r.ChildElements() {
		switch child.Tag {
		case "t", "tab", "br", "cr":
			if at < 0 {
				at = child.Index()
			}
			r.RemoveChild(child)
		}
	}
	for _, c := range controls {
		reuse[controlChar(c)] = append(reuse[controlChar(c)], c)
	}
	if at < 0 || at > len(r.Child) {
		at = len(r.Child)
	}

	insert := func(e *etree.Element) {
		r.InsertChildAt(at, e)
		at++
	}
	for i, segment := range segments {
		if segment != "" {
			insert(newText(segment))
		}
		if i == len(breaks) {
			break
		}
		c := breaks[i]
		if queue := reuse[c]; len(queue) > 0 {
			insert(queue[0])
			reuse[c] = queue[1:]
			continue
		}
		if c == '\t' {
			insert(etree.NewElement("w:tab"))
		} else {
			insert(etree.NewElement("w:br"))
		}
	}
}

func newText(text string) *etree.Element {
	t := etree.NewElement("w:t")
	setTextContent(t, text)
	return t
}

// setTextContent 设置 w:t 文本，首尾有空白时标记 xml:space
func setTextContent(t *etree.Element, text string) {
	t.SetText(text)
	if text != "" && text != strings.TrimSpace(text) {
		t.CreateAttr("xml:space", "preserve")
	}
}

// buildParagraph 创建新段落，样式名按 styles.xml 解析为样式 ID
func (b *Binding) buildParagraph(p *domain.Paragraph) *etree.Element {
	elem := etree.NewElement("w:p")
	if p.Style != "" {
		setParagraphStyle(elem, b.styleID(p.Style))
	}
	for _, run := range p.Runs {
		setRunText(elem.CreateElement("w:r"), run.Text)
	}
	return elem
}

// insertAfter 将 newChild 插入到 ref 之后
func insertAfter(parent, ref, newChild *etree.Element) {
	parent.InsertChildAt(ref.Index()+1, newChild)
}

// setParagraphStyle 设置 w:pPr/w:pStyle，必要时创建
func setParagraphStyle(p *etree.Element, style string) {
	pPr := childElement(p, "pPr")
	if pPr == nil {
		pPr = etree.NewElement("w:pPr")
		p.InsertChildAt(0, pPr)
	}
	pStyle := childElement(pPr, "pStyle")
	if pStyle == nil {
		pStyle = etree.NewElement("w:pStyle")
		pPr.InsertChildAt(0, pStyle)
	}
	pStyle.CreateAttr("w:val", style)
}
