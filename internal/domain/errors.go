package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedAddress 单元格地址格式错误，只影响当前占位符
	ErrMalformedAddress = errors.New("单元格地址格式错误")
	// ErrAddressNotFound 数据源中没有对应的工作表
	ErrAddressNotFound = errors.New("工作表不存在")
	// ErrCellOutOfRange 地址超出工作表的数据范围
	ErrCellOutOfRange = errors.New("单元格超出数据范围")
	// ErrSpanNotFound 无法从 run 序列还原匹配文本，属于内部一致性错误
	ErrSpanNotFound = errors.New("无法在 run 中定位匹配文本")
	// ErrImageNotFound 严格模式下图片缺失
	ErrImageNotFound = errors.New("未找到图片")
)

// MatchError 标识导致处理中止的段落和占位符
type MatchError struct {
	Container string // body、header:word/header1.xml、table[0][1][2] 等
	Paragraph int
	Literal   string
	Err       error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%s 第 %d 段 %q: %v", e.Container, e.Paragraph+1, e.Literal, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}
