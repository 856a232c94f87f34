// Package docx 读写 OOXML 文档包，并在 etree DOM 与文档模型之间绑定
package docx

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

// ErrPartNotFound 文档包中不存在指定部件
var ErrPartNotFound = errors.New("部件不存在")

const mainDocumentPart = "word/document.xml"

// entry 文档包中的一个 ZIP 条目
type entry struct {
	header zip.FileHeader
	raw    []byte
	doc    *etree.Document
	dirty  bool
	added  bool
}

// Package 已打开的 docx 文件
//
// 打开时一次性读入所有条目；XML 部件在首次访问时解析并缓存，
// 保存时只重新序列化被标记修改的部件，其余按原样复制。
type Package struct {
	order   []string
	entries map[string]*entry
}

// Open 打开 docx 文件
func Open(path string) (*Package, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("打开DOCX文件失败: %w", err)
	}
	defer reader.Close()

	pkg := &Package{
		entries: make(map[string]*entry, len(reader.File)),
	}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("打开文件 %s 失败: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("读取文件 %s 失败: %w", file.Name, err)
		}
		pkg.order = append(pkg.order, file.Name)
		pkg.entries[file.Name] = &entry{header: file.FileHeader, raw: content}
	}

	if _, ok := pkg.entries[mainDocumentPart]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, mainDocumentPart)
	}
	return pkg, nil
}

// HasPart 是否包含指定部件
func (p *Package) HasPart(name string) bool {
	_, ok := p.entries[name]
	return ok
}

// Parts 按原始顺序返回部件名称，新增部件排在最后
func (p *Package) Parts() []string {
	return append([]string(nil), p.order...)
}

// Part 返回解析后的 XML 部件
func (p *Package) Part(name string) (*etree.Document, error) {
	e, ok := p.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPartNotFound, name)
	}
	if e.doc != nil {
		return e.doc, nil
	}

	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(e.raw); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", name, err)
	}
	e.doc = doc
	return doc, nil
}

// RawPart 返回部件的原始字节
func (p *Package) RawPart(name string) ([]byte, error) {
	e, ok := p.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPartNotFound, name)
	}
	return e.raw, nil
}

// MarkDirty 标记部件已修改
func (p *Package) MarkDirty(name string) {
	if e, ok := p.entries[name]; ok {
		e.dirty = true
	}
}

// SetPart 新增或替换 XML 部件
func (p *Package) SetPart(name string, doc *etree.Document) {
	if e, ok := p.entries[name]; ok {
		e.doc = doc
		e.dirty = true
		return
	}
	p.order = append(p.order, name)
	p.entries[name] = &entry{
		header: zip.FileHeader{Name: name, Method: zip.Deflate},
		doc:    doc,
		dirty:  true,
		added:  true,
	}
}

// AddRawPart 新增二进制部件（如图片）
func (p *Package) AddRawPart(name string, data []byte) {
	if e, ok := p.entries[name]; ok {
		e.raw = data
		e.doc = nil
		e.dirty = false
		return
	}
	p.order = append(p.order, name)
	p.entries[name] = &entry{
		header: zip.FileHeader{Name: name, Method: zip.Deflate},
		raw:    data,
		added:  true,
	}
}

// Save 写入 outputPath，先写临时文件再改名
func (p *Package) Save(outputPath string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".docx-filler-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	zipWriter := zip.NewWriter(tmp)
	for _, name := range p.order {
		e := p.entries[name]

		content := e.raw
		if e.dirty {
			if e.doc == nil {
				return fmt.Errorf("部件 %s 已修改但未解析", name)
			}
			if content, err = e.doc.WriteToBytes(); err != nil {
				return fmt.Errorf("序列化 %s 失败: %w", name, err)
			}
		}

		header := e.header
		if !e.added {
			// 内容可能变化，让 zip 重新计算校验和与长度
			header = zip.FileHeader{
				Name:     e.header.Name,
				Method:   e.header.Method,
				Modified: e.header.Modified,
				Comment:  e.header.Comment,
			}
		}
		writer, err := zipWriter.CreateHeader(&header)
		if err != nil {
			return fmt.Errorf("创建ZIP文件头失败: %w", err)
		}
		if _, err := writer.Write(content); err != nil {
			return fmt.Errorf("写入 %s 失败: %w", name, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("关闭ZIP写入器失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("重命名输出文件失败: %w", err)
	}
	return nil
}
