package docx

import (
	"errors"
	"log/slog"
	"strings"
)

const stylesPart = "word/styles.xml"

// styleTable styles.xml 中的段落样式
type styleTable struct {
	ids   map[string]bool
	names map[string]string // 小写名称 -> styleId
}

// styleID 将样式名称解析为 w:pStyle 所需的样式 ID
//
// 依次按名称（不区分大小写）、样式 ID 匹配，本地化模板中内置样式的
// ID 与名称不同（如德文 Word 中 caption 的 ID 为 Beschriftung）。
// 文档没有 styles.xml 或没有匹配时原样返回。
func (b *Binding) styleID(style string) string {
	if b.styles == nil {
		b.styles = b.loadStyles()
	}
	if id, ok := b.styles.names[strings.ToLower(style)]; ok {
		return id
	}
	if b.styles.ids[style] {
		return style
	}
	for id := range b.styles.ids {
		if strings.EqualFold(id, style) {
			return id
		}
	}
	return style
}

func (b *Binding) loadStyles() *styleTable {
	table := &styleTable{ids: map[string]bool{}, names: map[string]string{}}

	doc, err := b.pkg.Part(stylesPart)
	if err != nil {
		if !errors.Is(err, ErrPartNotFound) {
			slog.Warn("读取样式表失败，样式按名称原样写入", "error", err)
		}
		return table
	}
	root := doc.Root()
	if root == nil {
		return table
	}
	for _, s := range root.SelectElements("style") {
		if t := s.SelectAttrValue("w:type", "paragraph"); t != "paragraph" {
			continue
		}
		id := s.SelectAttrValue("w:styleId", "")
		if id == "" {
			continue
		}
		table.ids[id] = true
		if name := childElement(s, "name"); name != nil {
			key := strings.ToLower(name.SelectAttrValue("w:val", ""))
			if _, seen := table.names[key]; key != "" && !seen {
				table.names[key] = id
			}
		}
	}
	return table
}
