package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/allanpk716/docx_filler/internal/config"
)

// FillCmd 填充单个模板或整个目录
type FillCmd struct {
	OptionFlags `embed:""`

	Workbook  string `help:"数据工作簿 (.xlsx/.xlsm)" type:"path" short:"w"`
	Template  string `help:"模板文件" type:"path" short:"t" xor:"source"`
	Output    string `help:"输出文件路径，优先于 --output-name" type:"path" short:"o"`
	InputDir  string `name:"input-dir" help:"批量处理的模板目录" type:"path" xor:"source"`
	OutputDir string `name:"output-dir" help:"批量输出目录，默认 <input-dir>_processed" type:"path"`
}

// Run 执行 fill 命令
func (c *FillCmd) Run(ctx context.Context, cfg *config.Config, p *Printer) error {
	settings := c.merge(cfg)
	if c.Workbook != "" {
		settings.Workbook = c.Workbook
	}

	template := c.Template
	if template == "" && c.InputDir == "" {
		template = settings.Template
	}
	if template == "" && c.InputDir == "" {
		return errors.New("必须指定模板文件或输入目录")
	}
	if c.InputDir != "" && c.Output != "" {
		return errors.New("批量模式下不能指定 --output，请使用 --output-dir")
	}

	dp, wb, err := newDocumentProcessor(settings, c.Verify)
	if err != nil {
		return err
	}
	defer wb.Close()

	if c.InputDir != "" {
		outputDir := c.OutputDir
		if outputDir == "" {
			outputDir = c.InputDir + "_processed"
		}
		report, err := ProcessBatchFiles(ctx, dp, c.InputDir, outputDir)
		if report != nil {
			p.Batch(outputDir, report)
		}
		if err != nil {
			return err
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("有 %d 个文件处理失败", len(report.Failed))
		}
		return nil
	}

	output := c.Output
	if output == "" {
		output = GenerateOutputFileName(template, settings.OutputName)
	}
	result, err := ProcessSingleFile(ctx, dp, template, output)
	if err != nil {
		return err
	}
	p.Result(output, result)
	return nil
}
