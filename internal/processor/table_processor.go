package processor

import (
	"context"
	"fmt"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// processTables 按行优先顺序处理表格，单元格内先段落后嵌套表格
func (w *Walker) processTables(ctx context.Context, prefix string, tables []domain.Table, result *domain.ProcessResult) error {
	for t := range tables {
		for r := range tables[t].Rows {
			row := &tables[t].Rows[r]
			for c := range row.Cells {
				if err := w.processCell(ctx, cellContainer(prefix, t, r, c), &row.Cells[c], result); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// processCell 单元格视为独立的段落容器
func (w *Walker) processCell(ctx context.Context, container string, cell *domain.Cell, result *domain.ProcessResult) error {
	paragraphs, err := w.processParagraphs(ctx, container, cell.Paragraphs, result)
	if err != nil {
		return err
	}
	cell.Paragraphs = paragraphs

	if len(cell.Tables) > 0 {
		return w.processTables(ctx, container+"/", cell.Tables, result)
	}
	return nil
}

// cellContainer 生成单元格的定位名称，如 table[0][1][2]
func cellContainer(prefix string, table, row, col int) string {
	return fmt.Sprintf("%stable[%d][%d][%d]", prefix, table, row, col)
}
