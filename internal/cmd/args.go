package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/allanpk716/docx_filler/internal/config"
	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/images"
	"github.com/allanpk716/docx_filler/internal/processor"
	"github.com/allanpk716/docx_filler/internal/sheet"
)

// OptionFlags fill 与 project 共用的填充参数，非空时覆盖配置文件
//
// 开关参数未出现在命令行时为 nil，沿用配置文件；--no-<name> 可关闭配置中打开的开关。
type OptionFlags struct {
	Sheet            string `help:"数据所在工作表" short:"s"`
	Images           string `help:"图片搜索根目录" type:"path"`
	OutputName       string `name:"output-name" help:"输出文件名（不含扩展名），默认 new_<模板文件名>"`
	Strict           *bool  `help:"图片缺失时中止处理" negatable:""`
	RawValues        *bool  `name:"raw-values" help:"读取单元格原始值而非显示文本" negatable:""`
	RecordProperties *bool  `name:"record-properties" help:"在文档自定义属性中记录填充来源" negatable:""`
	Verify           bool   `help:"保存后检查残留占位符" default:"true" negatable:""`
}

// merge 以配置为基础，用命令行参数覆盖
func (f OptionFlags) merge(cfg *config.Config) config.Config {
	merged := *cfg
	if f.Sheet != "" {
		merged.Sheet = f.Sheet
	}
	if f.Images != "" {
		merged.ImagesRoot = f.Images
	}
	if f.OutputName != "" {
		merged.OutputName = f.OutputName
	}
	if f.Strict != nil {
		merged.Strict = *f.Strict
	}
	if f.RawValues != nil {
		merged.RawValues = *f.RawValues
	}
	if f.RecordProperties != nil {
		merged.RecordProperties = *f.RecordProperties
	}
	return merged
}

// fillOptions 将配置转换为处理器选项
func fillOptions(cfg config.Config, verify bool) processor.FillOptions {
	return processor.FillOptions{
		Options: processor.Options{
			Sheet:         cfg.Sheet,
			ImagesRoot:    cfg.ImagesRoot,
			Strict:        cfg.Strict,
			ImageWidthEMU: images.InchesToEMU(cfg.Image.WidthInches),
			CaptionStyle:  cfg.Image.CaptionStyle,
		},
		WorkbookPath:     cfg.Workbook,
		RecordProperties: cfg.RecordProperties,
		Verify:           verify,
	}
}

// newDocumentProcessor 打开工作簿并创建文档处理器，调用方负责关闭工作簿
func newDocumentProcessor(cfg config.Config, verify bool) (domain.DocumentProcessor, *sheet.Workbook, error) {
	if cfg.Workbook == "" {
		return nil, nil, errors.New("必须指定数据工作簿")
	}
	if cfg.Sheet == "" {
		return nil, nil, errors.New("必须指定工作表")
	}

	wb, err := sheet.OpenWorkbook(cfg.Workbook, sheet.WithRawValues(cfg.RawValues))
	if err != nil {
		return nil, nil, err
	}
	locator := images.NewLocator(cfg.Image.Extensions...)
	return processor.NewDocumentProcessor(wb, locator, fillOptions(cfg, verify)), wb, nil
}

// GenerateOutputFileName 生成输出文件名
//
// 未指定名称时为模板同目录下的 new_<模板文件名>，否则为 <name><模板扩展名>。
func GenerateOutputFileName(inputFile, name string) string {
	dir := filepath.Dir(inputFile)
	if name == "" {
		return filepath.Join(dir, "new_"+filepath.Base(inputFile))
	}
	return filepath.Join(dir, name+filepath.Ext(inputFile))
}

// FindDocxFiles 查找目录中的所有 DOCX 文件
func FindDocxFiles(dir string) ([]string, error) {
	var docxFiles []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isDocx(d.Name()) {
			docxFiles = append(docxFiles, path)
		}
		return nil
	})

	return docxFiles, err
}

// FindTemplate 在 root 下递归查找第一个文件名匹配 pattern 的模板
func FindTemplate(root, pattern string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDocx(d.Name()) {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return err
		}
		if ok {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("查找模板失败: %w", err)
	}
	if found == "" {
		return "", fmt.Errorf("在 %s 中没有找到匹配 %q 的模板", root, pattern)
	}
	return found, nil
}

// CheckProjectFolder 检查项目目录是否同时包含工作簿和 Word 文档
func CheckProjectFolder(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("读取项目目录失败: %w", err)
	}

	var hasWorkbook, hasDocx bool
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".xlsm", ".xlsx":
			hasWorkbook = true
		case ".docx":
			hasDocx = true
		}
	}

	switch {
	case !hasWorkbook:
		return fmt.Errorf("目录 %s 中没有 .xlsm/.xlsx 工作簿", dir)
	case !hasDocx:
		return fmt.Errorf("目录 %s 中没有 .docx 文档", dir)
	}
	return nil
}

// isDocx 判断是否为 DOCX 文件，排除 Word 的 ~$ 临时文件
func isDocx(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".docx") && !strings.HasPrefix(name, "~$")
}
