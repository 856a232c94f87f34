package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// ProcessSingleFile 处理单个文件
func ProcessSingleFile(ctx context.Context, docProcessor domain.DocumentProcessor, inputFile, outputFile string) (*domain.ProcessResult, error) {
	slog.Info("处理文件", "input", inputFile, "output", outputFile)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	result, err := docProcessor.ProcessDocument(ctx, inputFile, outputFile)
	if err != nil {
		return nil, fmt.Errorf("处理文件失败: %w", err)
	}
	return result, nil
}

// BatchReport 批量处理的汇总
type BatchReport struct {
	Total  int
	Result domain.ProcessResult
	Failed map[string]error
}

// ProcessBatchFiles 批量处理目录中的模板
//
// 输出文件保持相对目录结构。单个文件失败不影响其余文件。
func ProcessBatchFiles(ctx context.Context, docProcessor domain.DocumentProcessor, inputDir, outputDir string) (*BatchReport, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	docxFiles, err := FindDocxFiles(inputDir)
	if err != nil {
		return nil, fmt.Errorf("查找 DOCX 文件失败: %w", err)
	}
	if len(docxFiles) == 0 {
		return nil, fmt.Errorf("在目录 %s 中没有找到 DOCX 文件", inputDir)
	}

	slog.Info("找到 DOCX 文件", "count", len(docxFiles), "dir", inputDir)

	report := &BatchReport{Total: len(docxFiles), Failed: make(map[string]error)}
	for i, inputFile := range docxFiles {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		relPath, err := filepath.Rel(inputDir, inputFile)
		if err != nil {
			return report, fmt.Errorf("计算相对路径失败: %w", err)
		}
		outputFile := filepath.Join(outputDir, relPath)

		slog.Info("批量处理", "index", i+1, "total", len(docxFiles), "file", relPath)

		result, err := ProcessSingleFile(ctx, docProcessor, inputFile, outputFile)
		if err != nil {
			slog.Error("处理文件失败", "file", inputFile, "error", err)
			report.Failed[relPath] = err
			continue
		}
		report.Result.Merge(result)
	}

	slog.Info("批量处理完成", "total", report.Total, "failed", len(report.Failed))
	return report, nil
}
