package matcher

import (
	"iter"
	"regexp"
	"slices"
	"strings"

	"github.com/allanpk716/docx_filler/internal/domain"
)

const (
	// ValuePrefix 单元格占位符前缀
	ValuePrefix = "Excel"
	// ImageDelimiter 图片标记分隔符
	ImageDelimiter = "##"
	// ImageTag 图片标记的第二个字段
	ImageTag = "Image"
)

var (
	valuePattern = regexp.MustCompile(`Excel[a-zA-Z]{1,2}\d+`)
	imagePattern = regexp.MustCompile(`##Image##.*?##.*?##`)
)

// Scanner 占位符扫描器
//
// 同一位置两种语法都能匹配时图片标记优先；已被前一个匹配覆盖的
// 文本不会再次参与匹配。
type Scanner struct {
	value *regexp.Regexp
	image *regexp.Regexp
}

// NewScanner 创建占位符扫描器
func NewScanner() *Scanner {
	return &Scanner{
		value: valuePattern,
		image: imagePattern,
	}
}

// Scan 从左到右产出互不重叠的匹配
//
// 结果对应调用时的文本，run 被修改后需要重新扫描。
func (s *Scanner) Scan(text string) iter.Seq[domain.Match] {
	return func(yield func(domain.Match) bool) {
		values := s.value.FindAllStringIndex(text, -1)
		images := s.image.FindAllStringIndex(text, -1)

		consumed := 0
		vi, ii := 0, 0
		for vi < len(values) || ii < len(images) {
			var m domain.Match
			switch {
			case ii < len(images) && (vi >= len(values) || images[ii][0] <= values[vi][0]):
				loc := images[ii]
				ii++
				literal := text[loc[0]:loc[1]]
				name, caption, ok := parseImageMarker(literal)
				if !ok {
					continue
				}
				m = domain.Match{
					Kind:      domain.ImageMatch,
					Literal:   literal,
					Start:     loc[0],
					ImageName: name,
					Caption:   caption,
				}
			default:
				loc := values[vi]
				vi++
				m = domain.Match{
					Kind:    domain.ValueMatch,
					Literal: text[loc[0]:loc[1]],
					Start:   loc[0],
					Address: text[loc[0]+len(ValuePrefix) : loc[1]],
				}
			}

			if m.Start < consumed {
				continue
			}
			consumed = m.End()
			if !yield(m) {
				return
			}
		}
	}
}

// FindMatches 返回文本中的全部匹配，按起始位置升序
func (s *Scanner) FindMatches(text string) []domain.Match {
	return slices.Collect(s.Scan(text))
}

// parseImageMarker 按 ## 切分图片标记，返回图片名称和标题
func parseImageMarker(marker string) (name, caption string, ok bool) {
	parts := strings.Split(marker, ImageDelimiter)
	if len(parts) < 4 || parts[1] != ImageTag {
		return "", "", false
	}
	return parts[2], parts[3], true
}
