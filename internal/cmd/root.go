package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/allanpk716/docx_filler/internal/config"
)

// AppName 程序名称
const AppName = "docx-filler"

// AppVersion 版本号，发布构建时通过 -ldflags 覆盖
var AppVersion = "dev"

// Globals 所有命令共用的参数
type Globals struct {
	Config  string `help:"配置文件路径（JSON 或 JSON5）" type:"path" short:"c"`
	Verbose bool   `help:"输出调试日志" short:"v"`
}

// CLI 命令行结构
type CLI struct {
	Globals `embed:""`

	Version kong.VersionFlag `help:"显示版本信息并退出"`

	Fill       FillCmd    `cmd:"" help:"用工作簿数据填充模板"`
	Inspect    InspectCmd `cmd:"" help:"列出模板中的占位符，不修改文件"`
	Project    ProjectCmd `cmd:"" help:"按项目目录约定查找模板和图片目录并生成 Output.docx"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"显示版本信息"`
}

// Parse 解析命令行参数
func Parse(args []string, options ...kong.Option) (*kong.Context, *CLI, error) {
	cli := &CLI{}
	options = append([]kong.Option{
		kong.Name(AppName),
		kong.Description("从 Excel 工作簿读取数据，填充 Word 模板中的 Excel<列><行> 占位符和 ##Image## 图片标记"),
		kong.Vars{"version": AppName + " " + AppVersion},
		kong.UsageOnError(),
	}, options...)

	parser, err := kong.New(cli, options...)
	if err != nil {
		return nil, nil, err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return nil, nil, err
	}
	return kctx, cli, nil
}

// Run 加载配置并执行选中的命令
func Run(ctx context.Context, kctx *kong.Context, cli *CLI, printer *Printer) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(&cli.Globals, cfg, printer)
	return kctx.Run()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.NewManager().LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("加载配置文件失败: %w", err)
	}
	slog.Debug("已加载配置文件", "path", path, "project", cfg.ProjectName)
	return cfg, nil
}

// VersionCmd 显示版本信息
type VersionCmd struct{}

// Run 执行 version 命令
func (c *VersionCmd) Run(p *Printer) error {
	p.Linef("%s %s", AppName, AppVersion)
	return nil
}
