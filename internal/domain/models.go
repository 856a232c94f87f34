package domain

import (
	"context"
	"fmt"
	"iter"
	"strings"
)

// DocumentProcessor 文档处理器接口
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, inputPath, outputPath string) (*ProcessResult, error)
	ValidateDocument(inputPath string) error
}

// PlaceholderScanner 占位符扫描器接口
type PlaceholderScanner interface {
	Scan(text string) iter.Seq[Match]
	FindMatches(text string) []Match
}

// DataSource 表格数据源，行列均为 0 起始
type DataSource interface {
	GetValue(sheetName string, rowIndex, colIndex int) (string, error)
}

// ImageLocator 图片查找器，未找到时返回 ok=false
type ImageLocator interface {
	Find(name, root string) (path string, ok bool, err error)
}

// Run 段落中一段格式一致的文本
type Run struct {
	Text    string
	Props   string   // 原始格式信息（序列化的 w:rPr），不做解释
	Picture *Picture // 非空表示该 run 承载一张嵌入图片
}

// Picture 嵌入图片
type Picture struct {
	Path      string
	Name      string
	WidthEMU  int64
	HeightEMU int64
}

// Paragraph 由若干 run 组成的段落
type Paragraph struct {
	ID    int // 加载时分配的绑定编号，新建段落为 0
	Style string
	Runs  []Run
}

// Text 返回段落的展开文本，每次从当前 run 重新计算
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Cell 表格单元格
type Cell struct {
	Paragraphs []Paragraph
	Tables     []Table
}

// Row 表格行
type Row struct {
	Cells []Cell
}

// Table 表格
type Table struct {
	Rows []Row
}

// HeaderFooter 页眉或页脚部件
type HeaderFooter struct {
	Part       string
	Paragraphs []Paragraph
	Tables     []Table
}

// Section 文档节
type Section struct {
	Headers []HeaderFooter
	Footers []HeaderFooter
}

// Document 文档模型
type Document struct {
	Body     []Paragraph
	Sections []Section
	Tables   []Table
}

// MatchKind 匹配类型
type MatchKind int

const (
	// ValueMatch 单元格取值占位符，如 ExcelG21
	ValueMatch MatchKind = iota
	// ImageMatch 图片标记，如 ##Image##name##caption##
	ImageMatch
)

// String 返回匹配类型名称
func (k MatchKind) String() string {
	switch k {
	case ValueMatch:
		return "value"
	case ImageMatch:
		return "image"
	default:
		return fmt.Sprintf("MatchKind(%d)", int(k))
	}
}

// Match 表示段落文本中的一个占位符
type Match struct {
	Kind      MatchKind
	Literal   string // 匹配到的完整文本
	Start     int    // 在展开文本中的字节偏移
	Address   string // ValueMatch: 前缀 Excel 之后的单元格地址文本
	ImageName string // ImageMatch: 图片名称
	Caption   string // ImageMatch: 图片标题
}

// End 匹配结束位置（不含）
func (m Match) End() int {
	return m.Start + len(m.Literal)
}

// CellAddress 单元格地址，行列均为 1 起始
type CellAddress struct {
	Row    int
	Column int
}

// RowIndex 0 起始的行号
func (a CellAddress) RowIndex() int { return a.Row - 1 }

// ColumnIndex 0 起始的列号
func (a CellAddress) ColumnIndex() int { return a.Column - 1 }

// String 返回 A1 形式的地址
func (a CellAddress) String() string {
	var letters []byte
	for n := a.Column; n > 0; n = (n - 1) / 26 {
		letters = append([]byte{byte('A' + (n-1)%26)}, letters...)
	}
	return fmt.Sprintf("%s%d", letters, a.Row)
}

// SpanPart 匹配在单个 run 中占用的片段
type SpanPart struct {
	Run    int
	Start  int
	Length int
}

// Span 匹配跨 run 的分解，按 run 序号升序
type Span []SpanPart

// Len 所有片段长度之和
func (s Span) Len() int {
	total := 0
	for _, part := range s {
		total += part.Length
	}
	return total
}

// Reconstruct 按片段从 runs 中取回文本
func (s Span) Reconstruct(runs []Run) string {
	var sb strings.Builder
	for _, part := range s {
		sb.WriteString(runs[part.Run].Text[part.Start : part.Start+part.Length])
	}
	return sb.String()
}

// ProcessResult 处理结果
type ProcessResult struct {
	Paragraphs         int
	Values             int
	Images             int
	MissingImages      []string
	MalformedAddresses []string
	Residual           []string
}

// Warnings 非致命问题数量
func (r *ProcessResult) Warnings() int {
	return len(r.MissingImages) + len(r.MalformedAddresses) + len(r.Residual)
}

// Merge 合并另一个结果
func (r *ProcessResult) Merge(other *ProcessResult) {
	if other == nil {
		return
	}
	r.Paragraphs += other.Paragraphs
	r.Values += other.Values
	r.Images += other.Images
	r.MissingImages = append(r.MissingImages, other.MissingImages...)
	r.MalformedAddresses = append(r.MalformedAddresses, other.MalformedAddresses...)
	r.Residual = append(r.Residual, other.Residual...)
}
