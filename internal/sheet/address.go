package sheet

import (
	"fmt"
	"strconv"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// ParseAddress 解析 A1 形式的单元格地址，字母不区分大小写
func ParseAddress(text string) (domain.CellAddress, error) {
	i := 0
	for i < len(text) && isLetter(text[i]) {
		i++
	}
	if i == 0 || i == len(text) {
		return domain.CellAddress{}, fmt.Errorf("%w: %q", domain.ErrMalformedAddress, text)
	}
	for j := i; j < len(text); j++ {
		if text[j] < '0' || text[j] > '9' {
			return domain.CellAddress{}, fmt.Errorf("%w: %q", domain.ErrMalformedAddress, text)
		}
	}

	row, err := strconv.Atoi(text[i:])
	if err != nil || row < 1 {
		return domain.CellAddress{}, fmt.Errorf("%w: %q 行号无效", domain.ErrMalformedAddress, text)
	}
	col, err := ColumnNumber(text[:i])
	if err != nil {
		return domain.CellAddress{}, err
	}
	return domain.CellAddress{Row: row, Column: col}, nil
}

// ColumnNumber 将列字母转换为 1 起始的列号（A=1, Z=26, AA=27）
func ColumnNumber(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: 列字母为空", domain.ErrMalformedAddress)
	}
	col := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if !isLetter(c) {
			return 0, fmt.Errorf("%w: %q 含非字母字符", domain.ErrMalformedAddress, letters)
		}
		col = col*26 + int(upper(c)-'A'+1)
	}
	return col, nil
}

// Resolver 按工作表名和地址文本取值
type Resolver struct {
	source domain.DataSource
}

// NewResolver 创建地址解析器
func NewResolver(source domain.DataSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve 解析地址并从数据源取值
func (r *Resolver) Resolve(sheetName, address string) (string, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return "", err
	}
	value, err := r.source.GetValue(sheetName, addr.RowIndex(), addr.ColumnIndex())
	if err != nil {
		return "", fmt.Errorf("读取 %s!%s 失败: %w", sheetName, addr, err)
	}
	return value, nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
