package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/muesli/termenv"

	"github.com/allanpk716/docx_filler/internal/domain"
	"github.com/allanpk716/docx_filler/internal/processor"
)

// Printer 向终端输出处理摘要，终端不支持颜色时输出纯文本
type Printer struct {
	out *termenv.Output
}

// NewPrinter 创建终端输出
func NewPrinter(w io.Writer, opts ...termenv.OutputOption) *Printer {
	return &Printer{out: termenv.NewOutput(w, opts...)}
}

// Linef 输出一行普通文本
func (p *Printer) Linef(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) styled(color string, bold bool, format string, args ...any) {
	s := p.out.String(fmt.Sprintf(format, args...)).Foreground(p.out.Color(color))
	if bold {
		s = s.Bold()
	}
	fmt.Fprintln(p.out, s.String())
}

func (p *Printer) ok(format string, args ...any)   { p.styled("2", true, format, args...) }
func (p *Printer) warn(format string, args ...any) { p.styled("3", false, format, args...) }
func (p *Printer) fail(format string, args ...any) { p.styled("1", true, format, args...) }

// Result 输出单个文档的处理结果
func (p *Printer) Result(output string, r *domain.ProcessResult) {
	p.ok("已生成 %s", output)
	p.Linef("  填充值 %d 个，插入图片 %d 张", r.Values, r.Images)
	p.warnings(r)
}

// Batch 输出批量处理的汇总
func (p *Printer) Batch(outputDir string, report *BatchReport) {
	succeeded := report.Total - len(report.Failed)
	p.ok("批量处理完成: %d/%d 个文件，输出目录 %s", succeeded, report.Total, outputDir)
	p.Linef("  填充值 %d 个，插入图片 %d 张", report.Result.Values, report.Result.Images)
	p.warnings(&report.Result)

	files := make([]string, 0, len(report.Failed))
	for file := range report.Failed {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		p.fail("  失败 %s: %v", file, report.Failed[file])
	}
}

func (p *Printer) warnings(r *domain.ProcessResult) {
	for _, name := range r.MissingImages {
		p.warn("  缺少图片: %s", name)
	}
	for _, literal := range r.MalformedAddresses {
		p.warn("  无效地址: %s", literal)
	}
	for _, token := range r.Residual {
		p.warn("  残留占位符: %s", token)
	}
}

// Findings 输出模板检查结果
func (p *Printer) Findings(template string, findings []processor.Finding) {
	if len(findings) == 0 {
		p.warn("%s 中没有占位符", template)
		return
	}

	var values, images int
	for _, f := range findings {
		if f.Match.Kind == domain.ImageMatch {
			images++
		} else {
			values++
		}
		p.Linef("%s", f)
	}
	p.ok("%s: %d 个值占位符，%d 个图片标记", template, values, images)
}
