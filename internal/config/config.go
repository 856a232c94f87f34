package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/allanpk716/docx_filler/internal/images"
	"github.com/allanpk716/docx_filler/internal/processor"
)

// 项目目录约定的默认值，图片相关默认值沿用 images 与 processor 包
const (
	DefaultTemplatePattern = "*Pre-Check.docx"
	DefaultImagesDirName   = "Images"
)

// ImageConfig 图片插入相关配置
type ImageConfig struct {
	WidthInches  float64  `json:"width_inches"`
	CaptionStyle string   `json:"caption_style"`
	Extensions   []string `json:"extensions"`
}

// Config 表示完整的配置文件结构
type Config struct {
	ProjectName      string      `json:"project_name"`
	Workbook         string      `json:"workbook"`
	Sheet            string      `json:"sheet"`
	Template         string      `json:"template"`
	TemplatePattern  string      `json:"template_pattern"`
	ImagesRoot       string      `json:"images_root"`
	ImagesDirName    string      `json:"images_dir_name"`
	OutputName       string      `json:"output_name"`
	Strict           bool        `json:"strict"`
	RawValues        bool        `json:"raw_values"`
	RecordProperties bool        `json:"record_properties"`
	Image            ImageConfig `json:"image"`
}

// Manager 配置管理接口
type Manager interface {
	LoadConfig(filePath string) (*Config, error)
	ValidateConfig(config *Config) error
	ApplyDefaults(config *Config)
}

type manager struct{}

// NewManager 创建新的配置管理器
func NewManager() Manager {
	return &manager{}
}

// Default 返回只含默认值的配置
func Default() *Config {
	cfg := &Config{}
	NewManager().ApplyDefaults(cfg)
	return cfg
}

// LoadConfig 从文件加载配置
//
// 支持 JSON 与 JSON5（注释、尾逗号）。配置中的相对路径以配置文件所在目录为基准。
func (m *manager) LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, errors.New("配置文件路径不能为空")
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("配置文件不存在: %s", filePath)
	}

	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".json", ".json5":
	default:
		return nil, fmt.Errorf("配置文件必须是 JSON 或 JSON5 格式，当前文件: %s", ext)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	m.ApplyDefaults(&cfg)
	cfg.resolvePaths(filepath.Dir(filePath))

	if err := m.ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults 为未设置的字段填入默认值
func (m *manager) ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.TemplatePattern == "" {
		cfg.TemplatePattern = DefaultTemplatePattern
	}
	if cfg.ImagesDirName == "" {
		cfg.ImagesDirName = DefaultImagesDirName
	}
	if cfg.Image.WidthInches == 0 {
		cfg.Image.WidthInches = images.DefaultWidthInches
	}
	if cfg.Image.CaptionStyle == "" {
		cfg.Image.CaptionStyle = processor.DefaultCaptionStyle
	}
	if len(cfg.Image.Extensions) == 0 {
		cfg.Image.Extensions = append([]string(nil), images.DefaultExtensions...)
	}
}

// ValidateConfig 验证配置的有效性
func (m *manager) ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("配置不能为空")
	}

	if cfg.Image.WidthInches <= 0 {
		return fmt.Errorf("图片宽度必须大于 0: %v", cfg.Image.WidthInches)
	}

	if _, err := filepath.Match(cfg.TemplatePattern, ""); err != nil {
		return fmt.Errorf("模板匹配模式无效 %q: %w", cfg.TemplatePattern, err)
	}

	if strings.ContainsAny(cfg.ImagesDirName, `/\`) {
		return fmt.Errorf("图片目录名不能包含路径分隔符: %s", cfg.ImagesDirName)
	}

	if strings.ContainsAny(cfg.OutputName, `/\`) {
		return fmt.Errorf("输出文件名不能包含路径分隔符: %s", cfg.OutputName)
	}

	seen := make(map[string]bool)
	for i, ext := range cfg.Image.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			return fmt.Errorf("第 %d 个图片扩展名不能为空", i+1)
		}
		key := strings.ToLower(strings.TrimPrefix(ext, "."))
		if seen[key] {
			return fmt.Errorf("图片扩展名重复: %s", ext)
		}
		seen[key] = true
	}

	if cfg.Template != "" && !strings.EqualFold(filepath.Ext(cfg.Template), ".docx") {
		return fmt.Errorf("模板必须是 .docx 文件: %s", cfg.Template)
	}

	return nil
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.Workbook, &c.Template, &c.ImagesRoot} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}
