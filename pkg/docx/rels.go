package docx

import (
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"

	relTypeImage      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeHeader     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relTypeFooter     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	relTypeCustomProp = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/custom-properties"

	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"
)

// relsPartName 返回部件对应的关系部件名，如 word/_rels/document.xml.rels
func relsPartName(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget 将关系目标转换为包内部件名
func resolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(sourcePart), target))
}

// relationships 读取部件的关系表，返回 Id 到目标部件名的映射
func (p *Package) relationships(part string) (map[string]string, error) {
	name := relsPartName(part)
	if !p.HasPart(name) {
		return map[string]string{}, nil
	}
	doc, err := p.Part(name)
	if err != nil {
		return nil, err
	}

	rels := make(map[string]string)
	root := doc.Root()
	if root == nil {
		return rels, nil
	}
	for _, rel := range root.SelectElements("Relationship") {
		if rel.SelectAttrValue("TargetMode", "") == "External" {
			continue
		}
		rels[rel.SelectAttrValue("Id", "")] = resolveTarget(part, rel.SelectAttrValue("Target", ""))
	}
	return rels, nil
}

// relationshipTargets 按关系表中的顺序返回指定类型关系的目标部件
func (p *Package) relationshipTargets(part string, relTypes ...string) ([]string, error) {
	name := relsPartName(part)
	if !p.HasPart(name) {
		return nil, nil
	}
	doc, err := p.Part(name)
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	var targets []string
	for _, rel := range root.SelectElements("Relationship") {
		if rel.SelectAttrValue("TargetMode", "") == "External" {
			continue
		}
		if slices.Contains(relTypes, rel.SelectAttrValue("Type", "")) {
			targets = append(targets, resolveTarget(part, rel.SelectAttrValue("Target", "")))
		}
	}
	return targets, nil
}

// addRelationship 在部件的关系表中追加一条关系，返回新的 Id
func (p *Package) addRelationship(part, relType, target string) (string, error) {
	name := relsPartName(part)

	var doc *etree.Document
	if p.HasPart(name) {
		var err error
		if doc, err = p.Part(name); err != nil {
			return "", err
		}
	} else {
		doc = etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		doc.CreateElement("Relationships").CreateAttr("xmlns", nsRelationships)
		p.SetPart(name, doc)
	}

	root := doc.Root()
	used := make(map[string]bool)
	for _, rel := range root.SelectElements("Relationship") {
		used[rel.SelectAttrValue("Id", "")] = true
	}
	id := ""
	for n := len(used) + 1; ; n++ {
		id = "rId" + strconv.Itoa(n)
		if !used[id] {
			break
		}
	}

	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
	p.MarkDirty(name)
	return id, nil
}

// ensureDefaultContentType 为扩展名登记默认内容类型
func (p *Package) ensureDefaultContentType(ext, contentType string) error {
	doc, err := p.Part(contentTypesPart)
	if err != nil {
		return err
	}
	root := doc.Root()
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, d := range root.SelectElements("Default") {
		if strings.EqualFold(d.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}

	d := etree.NewElement("Default")
	d.CreateAttr("Extension", ext)
	d.CreateAttr("ContentType", contentType)
	// Default 元素需位于 Override 之前
	if first := root.SelectElement("Override"); first != nil {
		root.InsertChildAt(first.Index(), d)
	} else {
		root.AddChild(d)
	}
	p.MarkDirty(contentTypesPart)
	return nil
}

// ensureOverrideContentType 为部件登记内容类型
func (p *Package) ensureOverrideContentType(part, contentType string) error {
	doc, err := p.Part(contentTypesPart)
	if err != nil {
		return err
	}
	root := doc.Root()
	partName := "/" + part
	for _, o := range root.SelectElements("Override") {
		if o.SelectAttrValue("PartName", "") == partName {
			return nil
		}
	}
	o := root.CreateElement("Override")
	o.CreateAttr("PartName", partName)
	o.CreateAttr("ContentType", contentType)
	p.MarkDirty(contentTypesPart)
	return nil
}

// ensurePackageRelationship 在 _rels/.rels 中登记包级关系
func (p *Package) ensurePackageRelationship(relType, target string) error {
	if p.HasPart(packageRelsPart) {
		doc, err := p.Part(packageRelsPart)
		if err != nil {
			return err
		}
		for _, rel := range doc.Root().SelectElements("Relationship") {
			if rel.SelectAttrValue("Type", "") == relType {
				return nil
			}
		}
	}
	// 包级关系表对应的源部件是包根
	_, err := p.addRelationship("", relType, target)
	return err
}

// nextPartIndex 返回 prefix<N>. 形式下未被占用的最小 N
func (p *Package) nextPartIndex(prefix string) int {
	for n := 1; ; n++ {
		taken := false
		for _, name := range p.order {
			if strings.HasPrefix(name, prefix+strconv.Itoa(n)+".") {
				taken = true
				break
			}
		}
		if !taken {
			return n
		}
	}
}

// contentTypeFor 图片扩展名对应的内容类型
func contentTypeFor(ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".tif", ".tiff":
		return "image/tiff", nil
	case ".gif":
		return "image/gif", nil
	case ".bmp":
		return "image/bmp", nil
	default:
		return "", fmt.Errorf("不支持的图片格式: %s", ext)
	}
}
