package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/matcher"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// FillOptions 文件级处理选项
type FillOptions struct {
	Options
	WorkbookPath     string // 仅用于记录来源
	RecordProperties bool   // 在 docProps/custom.xml 中记录填充来源
	Verify           bool   // 保存后重新打开检查残留占位符
}

// documentProcessor 文档处理器实现
type documentProcessor struct {
	source  domain.DataSource
	locator domain.ImageLocator
	opts    FillOptions
}

// NewDocumentProcessor 创建新的文档处理器
func NewDocumentProcessor(source domain.DataSource, locator domain.ImageLocator, opts FillOptions) domain.DocumentProcessor {
	return &documentProcessor{
		source:  source,
		locator: locator,
		opts:    opts,
	}
}

// ProcessDocument 填充模板并写出新文档
//
// 出现致命错误时不会写出任何文件。
func (dp *documentProcessor) ProcessDocument(ctx context.Context, inputPath, outputPath string) (*domain.ProcessResult, error) {
	if err := dp.ValidateDocument(inputPath); err != nil {
		return nil, fmt.Errorf("文档验证失败: %w", err)
	}
	if outputPath == "" {
		return nil, errors.New("输出路径不能为空")
	}
	if sameFile(inputPath, outputPath) {
		return nil, errors.New("输出路径不能与模板相同")
	}

	slog.Info("开始处理文档", "template", inputPath)

	pkg, err := docx.Open(inputPath)
	if err != nil {
		return nil, err
	}
	doc, binding, err := docx.Load(pkg)
	if err != nil {
		return nil, fmt.Errorf("加载文档失败: %w", err)
	}

	walker := NewWalker(dp.source, dp.locator, dp.opts.Options)
	result, err := walker.Process(ctx, doc)
	if err != nil {
		return result, fmt.Errorf("处理文档失败: %w", err)
	}

	if err := binding.Apply(doc); err != nil {
		return result, fmt.Errorf("写回文档失败: %w", err)
	}

	if dp.opts.RecordProperties {
		record := docx.FillRecord{
			Template:  filepath.Base(inputPath),
			Workbook:  filepath.Base(dp.opts.WorkbookPath),
			Sheet:     dp.opts.Sheet,
			Values:    result.Values,
			Images:    result.Images,
			Timestamp: time.Now(),
		}
		if err := docx.RecordProperties(pkg, record); err != nil {
			return result, fmt.Errorf("记录文档属性失败: %w", err)
		}
	}

	if err := pkg.Save(outputPath); err != nil {
		return result, fmt.Errorf("保存文档失败: %w", err)
	}

	if dp.opts.Verify {
		residual, err := docx.VerifyOutput(outputPath, matcher.NewScanner())
		if err != nil {
			slog.Warn("输出校验失败", "output", outputPath, "error", err)
		} else if len(residual) > 0 {
			slog.Warn("输出文档中仍有未替换的占位符", "output", outputPath, "count", len(residual))
			result.Residual = residual
		}
	}

	slog.Info("文档处理完成", "output", outputPath)
	return result, nil
}

// ValidateDocument 验证文档是否有效
func (dp *documentProcessor) ValidateDocument(inputPath string) error {
	if inputPath == "" {
		return errors.New("输入路径不能为空")
	}
	if !strings.EqualFold(filepath.Ext(inputPath), ".docx") {
		return fmt.Errorf("不支持的文件类型: %s", inputPath)
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("无法访问文档: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s 是目录", inputPath)
	}
	if _, err := docx.Open(inputPath); err != nil {
		return fmt.Errorf("无法打开文档: %w", err)
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
