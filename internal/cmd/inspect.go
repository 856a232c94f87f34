package cmd

import (
	"fmt"

	"github.com/allanpk716/docx_filler/internal/processor"
	"github.com/allanpk716/docx_filler/pkg/docx"
)

// InspectCmd 列出模板中的占位符
type InspectCmd struct {
	Template string `arg:"" help:"模板文件" type:"existingfile"`
}

// Run 执行 inspect 命令
func (c *InspectCmd) Run(p *Printer) error {
	pkg, err := docx.Open(c.Template)
	if err != nil {
		return err
	}
	doc, _, err := docx.Load(pkg)
	if err != nil {
		return fmt.Errorf("加载文档失败: %w", err)
	}

	p.Findings(c.Template, processor.Inspect(doc))
	return nil
}
