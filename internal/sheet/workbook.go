package sheet

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Workbook 基于 excelize 的表格数据源
//
// 每个工作表在首次访问时整体读入并缓存，数据范围从 A1 开始，
// 行数为最后一个非空行，列数为所有行中最长的一行。
type Workbook struct {
	file *excelize.File
	raw  bool

	mu     sync.Mutex
	sheets map[string]*grid
}

type grid struct {
	rows [][]string
	cols int
}

// WorkbookOption 数据源选项
type WorkbookOption func(*Workbook)

// WithRawValues 读取未格式化的单元格原始值
func WithRawValues(raw bool) WorkbookOption {
	return func(w *Workbook) {
		w.raw = raw
	}
}

// OpenWorkbook 打开 xlsx 文件
func OpenWorkbook(path string, opts ...WorkbookOption) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	return NewWorkbook(f, opts...), nil
}

// NewWorkbook 包装已打开的 excelize 文件
func NewWorkbook(f *excelize.File, opts ...WorkbookOption) *Workbook {
	w := &Workbook{
		file:   f,
		sheets: make(map[string]*grid),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SheetNames 返回工作表名称列表
func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

// GetValue 返回 0 起始坐标处的单元格文本
func (w *Workbook) GetValue(sheetName string, rowIndex, colIndex int) (string, error) {
	g, err := w.load(sheetName)
	if err != nil {
		return "", err
	}
	if rowIndex < 0 || colIndex < 0 || rowIndex >= len(g.rows) || colIndex >= g.cols {
		return "", fmt.Errorf("%w: %s 行 %d 列 %d（数据范围 %d×%d）",
			domain.ErrCellOutOfRange, sheetName, rowIndex+1, colIndex+1, len(g.rows), g.cols)
	}
	row := g.rows[rowIndex]
	if colIndex >= len(row) {
		return "", nil
	}
	return row[colIndex], nil
}

// Close 关闭工作簿
func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) load(sheetName string) (*grid, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if g, ok := w.sheets[sheetName]; ok {
		return g, nil
	}

	idx, err := w.file.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return nil, w.missingSheet(sheetName)
	}

	rows, err := w.file.GetRows(sheetName, excelize.Options{RawCellValue: w.raw})
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %q 失败: %w", sheetName, err)
	}

	g := &grid{rows: rows}
	for _, row := range rows {
		g.cols = max(g.cols, len(row))
	}
	w.sheets[sheetName] = g
	slog.Debug("已加载工作表", "sheet", sheetName, "rows", len(rows), "cols", g.cols)
	return g, nil
}

// missingSheet 工作表不存在时列出可用的工作表，名称只差首尾空白时给出提示
func (w *Workbook) missingSheet(sheetName string) error {
	names := w.SheetNames()
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(sheetName)) {
			return fmt.Errorf("%w: %q，是否为 %q？", domain.ErrAddressNotFound, sheetName, name)
		}
	}
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = strconv.Quote(name)
	}
	return fmt.Errorf("%w: %q，可用的工作表: %s", domain.ErrAddressNotFound, sheetName, strings.Join(quoted, ", "))
}
