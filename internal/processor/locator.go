package processor

import (
	"fmt"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// Locate 计算从展开文本偏移 start 开始的 literal 在各 run 中的分布
//
// runs 视为连续的字符带：先累加各 run 长度找到 start 所在的 run，
// 再逐个 run 消耗字符直到 literal 全部覆盖。空 run 不产生片段。
func Locate(runs []domain.Run, literal string, start int) (domain.Span, error) {
	if literal == "" || start < 0 {
		return nil, fmt.Errorf("%w: 空匹配或负偏移 %d", domain.ErrSpanNotFound, start)
	}

	// 定位首个参与匹配的 run 及 run 内起点
	first, offset := -1, 0
	pos := 0
	for i, r := range runs {
		n := len(r.Text)
		if n == 0 {
			continue
		}
		if pos+n > start {
			first, offset = i, start-pos
			break
		}
		pos += n
	}
	if first < 0 {
		return nil, fmt.Errorf("%w: 偏移 %d 超出段落长度 %d", domain.ErrSpanNotFound, start, pos)
	}

	var span domain.Span
	remaining := len(literal)
	for i := first; i < len(runs) && remaining > 0; i++ {
		left := len(runs[i].Text) - offset
		if left <= 0 {
			offset = 0
			continue
		}
		take := min(remaining, left)
		span = append(span, domain.SpanPart{Run: i, Start: offset, Length: take})
		remaining -= take
		offset = 0
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: %q 在段落末尾被截断", domain.ErrSpanNotFound, literal)
	}
	if got := span.Reconstruct(runs); got != literal {
		return nil, fmt.Errorf("%w: 期望 %q 实际 %q", domain.ErrSpanNotFound, literal, got)
	}
	return span, nil
}
