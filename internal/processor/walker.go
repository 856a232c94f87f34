package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/images"
	"github.com/allanpk716/docx_filler/internal/matcher"
	"github.com/allanpk716/docx_filler/internal/sheet"
)

// Options 单次填充的参数
type Options struct {
	Sheet         string // 数据所在工作表
	ImagesRoot    string // 图片搜索根目录，为空时所有图片视为缺失
	Strict        bool   // 图片缺失时中止
	ImageWidthEMU int64
	CaptionStyle  string
}

// DefaultCaptionStyle 图片标题段落样式
const DefaultCaptionStyle = "Caption"

func (o Options) withDefaults() Options {
	if o.ImageWidthEMU <= 0 {
		o.ImageWidthEMU = images.InchesToEMU(images.DefaultWidthInches)
	}
	if o.CaptionStyle == "" {
		o.CaptionStyle = DefaultCaptionStyle
	}
	return o
}

// FitFunc 根据图片路径和目标宽度计算 EMU 尺寸
type FitFunc func(path string, widthEMU int64) (cx, cy int64, err error)

// Walker 遍历文档中所有段落容器并执行替换
//
// 顺序固定：正文段落，各节的页眉再页脚，最后是表格（按行、按单元格，
// 单元格内先段落后嵌套表格）。
type Walker struct {
	scanner  domain.PlaceholderScanner
	resolver *sheet.Resolver
	images   domain.ImageLocator
	fit      FitFunc
	opts     Options
	logger   *slog.Logger
}

// NewWalker 创建文档遍历器
func NewWalker(source domain.DataSource, locator domain.ImageLocator, opts Options) *Walker {
	return &Walker{
		scanner:  matcher.NewScanner(),
		resolver: sheet.NewResolver(source),
		images:   locator,
		fit:      images.FitWidth,
		opts:     opts.withDefaults(),
		logger:   slog.Default(),
	}
}

// WithFit 替换图片尺寸计算函数
func (w *Walker) WithFit(fit FitFunc) *Walker {
	w.fit = fit
	return w
}

// Process 对整个文档执行一次替换
//
// 任何致命错误都会立即返回，此时文档可能已被部分修改，调用方不应保存。
func (w *Walker) Process(ctx context.Context, doc *domain.Document) (*domain.ProcessResult, error) {
	result := &domain.ProcessResult{}

	body, err := w.processParagraphs(ctx, "body", doc.Body, result)
	if err != nil {
		return result, err
	}
	doc.Body = body

	for s := range doc.Sections {
		section := &doc.Sections[s]
		for h := range section.Headers {
			hf := &section.Headers[h]
			if err := w.processHeaderFooter(ctx, "header:", hf, result); err != nil {
				return result, err
			}
		}
		for f := range section.Footers {
			if err := w.processHeaderFooter(ctx, "footer:", &section.Footers[f], result); err != nil {
				return result, err
			}
		}
	}

	if err := w.processTables(ctx, "", doc.Tables, result); err != nil {
		return result, err
	}

	w.logger.Info("文档替换完成",
		"paragraphs", result.Paragraphs,
		"values", result.Values,
		"images", result.Images,
		"warnings", result.Warnings())
	return result, nil
}

// processHeaderFooter 先处理页眉页脚中的段落，再处理其中的表格
func (w *Walker) processHeaderFooter(ctx context.Context, kind string, hf *domain.HeaderFooter, result *domain.ProcessResult) error {
	container := kind + hf.Part
	paragraphs, err := w.processParagraphs(ctx, container, hf.Paragraphs, result)
	if err != nil {
		return err
	}
	hf.Paragraphs = paragraphs
	return w.processTables(ctx, container+"/", hf.Tables, result)
}

// processParagraphs 处理一个容器中的段落，返回可能插入了标题段落的新切片
func (w *Walker) processParagraphs(ctx context.Context, container string, paragraphs []domain.Paragraph, result *domain.ProcessResult) ([]domain.Paragraph, error) {
	// ordinal 为模板中的段落序号，不计插入的标题段落
	for i, ordinal := 0, 0; i < len(paragraphs); i, ordinal = i+1, ordinal+1 {
		select {
		case <-ctx.Done():
			return paragraphs, ctx.Err()
		default:
		}

		result.Paragraphs++
		next, inserted, err := w.processParagraph(container, paragraphs, i, ordinal, result)
		if err != nil {
			return paragraphs, err
		}
		paragraphs = next
		if inserted {
			// 跳过刚插入的标题段落
			i++
		}
	}
	return paragraphs, nil
}

// processParagraph 扫描一次原始文本，值占位符从右向左替换，之后处理第一个图片标记
//
// index 是段落在当前切片中的位置，ordinal 是其在模板中的序号，用于报错和日志。
func (w *Walker) processParagraph(container string, paragraphs []domain.Paragraph, index, ordinal int, result *domain.ProcessResult) ([]domain.Paragraph, bool, error) {
	p := &paragraphs[index]
	matches := w.scanner.FindMatches(p.Text())
	if len(matches) == 0 {
		return paragraphs, false, nil
	}

	fail := func(m domain.Match, err error) error {
		return &domain.MatchError{Container: container, Paragraph: ordinal, Literal: m.Literal, Err: err}
	}

	var image *domain.Match
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if m.Kind == domain.ImageMatch {
			image = &matches[i]
			continue
		}

		value, err := w.resolver.Resolve(w.opts.Sheet, m.Address)
		if errors.Is(err, domain.ErrMalformedAddress) {
			w.logger.Warn("跳过格式错误的占位符", "container", container, "paragraph", ordinal, "literal", m.Literal)
			result.MalformedAddresses = append(result.MalformedAddresses, m.Literal)
			continue
		}
		if err != nil {
			return paragraphs, false, fail(m, err)
		}

		span, err := Locate(p.Runs, m.Literal, m.Start)
		if err != nil {
			return paragraphs, false, fail(m, err)
		}
		if err := Apply(p, span, value); err != nil {
			return paragraphs, false, fail(m, err)
		}
		result.Values++
		w.logger.Debug("已替换占位符", "container", container, "paragraph", ordinal, "literal", m.Literal, "value", value)
	}

	if image == nil {
		return paragraphs, false, nil
	}
	return w.applyImage(container, paragraphs, index, ordinal, *image, result)
}

func (w *Walker) applyImage(container string, paragraphs []domain.Paragraph, index, ordinal int, m domain.Match, result *domain.ProcessResult) ([]domain.Paragraph, bool, error) {
	path, ok, err := w.findImage(m.ImageName)
	if err != nil {
		return paragraphs, false, &domain.MatchError{Container: container, Paragraph: ordinal, Literal: m.Literal, Err: err}
	}
	if !ok {
		if w.opts.Strict {
			return paragraphs, false, &domain.MatchError{
				Container: container, Paragraph: ordinal, Literal: m.Literal,
				Err: fmt.Errorf("%w: %q", domain.ErrImageNotFound, m.ImageName),
			}
		}
		w.logger.Warn("未找到图片，保留标记", "container", container, "paragraph", ordinal, "image", m.ImageName)
		result.MissingImages = append(result.MissingImages, m.ImageName)
		return paragraphs, false, nil
	}

	cx, cy, err := w.fit(path, w.opts.ImageWidthEMU)
	if err != nil {
		return paragraphs, false, &domain.MatchError{Container: container, Paragraph: ordinal, Literal: m.Literal, Err: err}
	}

	pic := &domain.Picture{Path: path, Name: filepath.Base(path), WidthEMU: cx, HeightEMU: cy}
	next, err := ApplyImage(paragraphs, index, pic, m.Caption, w.opts.CaptionStyle)
	if err != nil {
		return paragraphs, false, &domain.MatchError{Container: container, Paragraph: ordinal, Literal: m.Literal, Err: err}
	}
	result.Images++
	w.logger.Debug("已插入图片", "container", container, "paragraph", ordinal, "image", path)
	return next, true, nil
}

func (w *Walker) findImage(name string) (string, bool, error) {
	if name == "" || w.opts.ImagesRoot == "" || w.images == nil {
		return "", false, nil
	}
	return w.images.Find(name, w.opts.ImagesRoot)
}
