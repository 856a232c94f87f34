package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/allanpk716/docx_filler/internal/config"
	"github.com/allanpk716/docx_filler/internal/images"
)

// 项目目录约定下的默认值
const (
	DefaultProjectSheet  = "SQ_Auditoreingaben "
	DefaultProjectOutput = "Output"
)

// ProjectCmd 以工作簿所在目录为项目根目录完成一次填充
//
// 模板按 template_pattern 递归查找，图片目录按 images_dir_name 递归查找，
// 输出保存在模板旁边。
type ProjectCmd struct {
	OptionFlags `embed:""`

	Workbook string `arg:"" help:"项目目录中的数据工作簿" type:"existingfile"`
}

// Run 执行 project 命令
func (c *ProjectCmd) Run(ctx context.Context, cfg *config.Config, p *Printer) error {
	settings := c.merge(cfg)

	workbook, err := filepath.Abs(c.Workbook)
	if err != nil {
		return err
	}
	settings.Workbook = workbook
	root := filepath.Dir(workbook)

	if err := CheckProjectFolder(root); err != nil {
		slog.Warn("项目目录结构不符合要求", "dir", root, "error", err)
	}

	template := settings.Template
	if template == "" {
		template, err = FindTemplate(root, settings.TemplatePattern)
		if err != nil {
			return err
		}
	}

	if settings.Sheet == "" {
		settings.Sheet = DefaultProjectSheet
	}
	if settings.ImagesRoot == "" {
		folder, err := images.FindFolder(root, settings.ImagesDirName)
		if err != nil {
			slog.Warn("未找到图片目录，所有图片标记将保留", "dir", root, "name", settings.ImagesDirName)
		} else {
			settings.ImagesRoot = folder
		}
	}
	if settings.OutputName == "" {
		settings.OutputName = DefaultProjectOutput
	}

	dp, wb, err := newDocumentProcessor(settings, c.Verify)
	if err != nil {
		return err
	}
	defer wb.Close()

	output := GenerateOutputFileName(template, settings.OutputName)
	result, err := ProcessSingleFile(ctx, dp, template, output)
	if err != nil {
		return err
	}
	p.Result(output, result)
	return nil
}
