package docx

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/allanpk716/docx_filler/internal/domain"
)

const (
	nsWordprocessingDrawing = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsDrawingMain           = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPicture               = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsOfficeRelationships   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	mediaPrefix = "word/media/filler_image"
)

// rebuildWithPicture 清空段落内容（保留 w:pPr），写入一个内联图片 run
func (b *Binding) rebuildWithPicture(bp *boundParagraph, pic *domain.Picture) error {
	relID, err := b.embedImage(bp.part, pic.Path)
	if err != nil {
		return err
	}

	var toRemove []*etree.Element
	for _, child := range bp.elem.ChildElements() {
		if child.Tag != "pPr" {
			toRemove = append(toRemove, child)
		}
	}
	for _, child := range toRemove {
		bp.elem.RemoveChild(child)
	}

	b.maxDocPrID++
	r := bp.elem.CreateElement("w:r")
	r.AddChild(buildDrawing(relID, b.maxDocPrID, pic))
	bp.runs = []*etree.Element{r}

	if err := b.ensureDrawingNamespaces(bp.part); err != nil {
		return err
	}
	b.pkg.MarkDirty(bp.part)
	return nil
}

// embedImage 将图片写入 word/media 并在部件的关系表中登记，返回关系 Id
func (b *Binding) embedImage(part, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("读取图片失败: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(imagePath))
	if ext == ".tif" {
		ext = ".tiff"
	}
	contentType, err := contentTypeFor(ext)
	if err != nil {
		return "", err
	}

	name := mediaPrefix + strconv.Itoa(b.pkg.nextPartIndex(mediaPrefix)) + ext
	b.pkg.AddRawPart(name, data)
	if err := b.pkg.ensureDefaultContentType(ext, contentType); err != nil {
		return "", err
	}
	return b.pkg.addRelationship(part, relTypeImage, relativeTarget(part, name))
}

// relativeTarget 计算从 source 部件指向 target 部件的相对路径
func relativeTarget(source, target string) string {
	dir := path.Dir(source) + "/"
	if strings.HasPrefix(target, dir) {
		return strings.TrimPrefix(target, dir)
	}
	return "/" + target
}

// ensureDrawingNamespaces 确保部件根元素声明了 drawing 所需的命名空间前缀
func (b *Binding) ensureDrawingNamespaces(part string) error {
	doc, err := b.pkg.Part(part)
	if err != nil {
		return err
	}
	root := doc.Root()
	for prefix, ns := range map[string]string{
		"wp": nsWordprocessingDrawing,
		"r":  nsOfficeRelationships,
	} {
		if root.SelectAttr("xmlns:"+prefix) == nil {
			root.CreateAttr("xmlns:"+prefix, ns)
		}
	}
	return nil
}

// buildDrawing 生成 w:drawing/wp:inline 结构
func buildDrawing(relID string, docPrID int, pic *domain.Picture) *etree.Element {
	cx := strconv.FormatInt(pic.WidthEMU, 10)
	cy := strconv.FormatInt(pic.HeightEMU, 10)
	id := strconv.Itoa(docPrID)

	drawing := etree.NewElement("w:drawing")
	inline := drawing.CreateElement("wp:inline")
	for _, attr := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(attr, "0")
	}

	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", cx)
	extent.CreateAttr("cy", cy)

	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", id)
	docPr.CreateAttr("name", "Picture "+id)
	docPr.CreateAttr("descr", pic.Name)

	frame := inline.CreateElement("wp:cNvGraphicFramePr")
	locks := frame.CreateElement("a:graphicFrameLocks")
	locks.CreateAttr("xmlns:a", nsDrawingMain)
	locks.CreateAttr("noChangeAspect", "1")

	graphic := inline.CreateElement("a:graphic")
	graphic.CreateAttr("xmlns:a", nsDrawingMain)
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", nsPicture)

	p := data.CreateElement("pic:pic")
	p.CreateAttr("xmlns:pic", nsPicture)

	nv := p.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", pic.Name)
	nv.CreateElement("pic:cNvPicPr").CreateElement("a:picLocks").CreateAttr("noChangeAspect", "1")

	fill := p.CreateElement("pic:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", relID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := p.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", cx)
	ext.CreateAttr("cy", cy)
	spPr.CreateElement("a:prstGeom").CreateAttr("prst", "rect")

	return drawing
}
