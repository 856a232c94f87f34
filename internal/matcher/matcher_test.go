package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_filler/internal/domain"
)

func TestScanner_FindMatches(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		text     string
		literals []string
	}{
		{"single value", "Score: ExcelG21 points", []string{"ExcelG21"}},
		{"two letter column", "ExcelAA5", []string{"ExcelAA5"}},
		{"lowercase column", "Excelg21", []string{"Excelg21"}},
		{"adjacent values", "ExcelA1ExcelB2", []string{"ExcelA1", "ExcelB2"}},
		{"three letters do not match", "ExcelABC1", nil},
		{"missing row", "ExcelG and more", nil},
		{"no placeholders", "This is a normal text", nil},
		{"image marker", "##Image##site_plan##Figure 1: Site Plan##", []string{"##Image##site_plan##Figure 1: Site Plan##"}},
		{"mixed", "See ExcelB3 and ##Image##a##b## then ExcelC4", []string{"ExcelB3", "##Image##a##b##", "ExcelC4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, m := range scanner.FindMatches(tt.text) {
				got = append(got, m.Literal)
				assert.Equal(t, m.Literal, tt.text[m.Start:m.End()])
			}
			assert.Equal(t, tt.literals, got)
		})
	}
}

func TestScanner_ValueAddress(t *testing.T) {
	matches := NewScanner().FindMatches("a ExcelG21 b ExcelAA5")
	require.Len(t, matches, 2)

	assert.Equal(t, domain.ValueMatch, matches[0].Kind)
	assert.Equal(t, "G21", matches[0].Address)
	assert.Equal(t, 2, matches[0].Start)
	assert.Equal(t, "AA5", matches[1].Address)
	assert.Equal(t, 13, matches[1].Start)
}

func TestScanner_ImageMarker(t *testing.T) {
	matches := NewScanner().FindMatches("##Image##site_plan##Figure 1: Site Plan##")
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, domain.ImageMatch, m.Kind)
	assert.Equal(t, "site_plan", m.ImageName)
	assert.Equal(t, "Figure 1: Site Plan", m.Caption)
	assert.Equal(t, 0, m.Start)
}

func TestScanner_OverlapFirstMatchWins(t *testing.T) {
	// 标题里的单元格占位符属于图片标记，不会单独匹配
	text := "##Image##chart##Result ExcelG21##"
	matches := NewScanner().FindMatches(text)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.ImageMatch, matches[0].Kind)
	assert.Equal(t, "Result ExcelG21", matches[0].Caption)

	// 图片名称以占位符开头时同样以图片标记为准
	text = "x ##Image##ExcelA1##cap## ExcelB2"
	matches = NewScanner().FindMatches(text)
	require.Len(t, matches, 2)
	assert.Equal(t, domain.ImageMatch, matches[0].Kind)
	assert.Equal(t, "ExcelA1", matches[0].ImageName)
	assert.Equal(t, "ExcelB2", matches[1].Literal)
}

func TestScanner_LazyStop(t *testing.T) {
	text := strings.Repeat("ExcelA1 ", 100)

	count := 0
	for range NewScanner().Scan(text) {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestParseImageMarker(t *testing.T) {
	tests := []struct {
		marker  string
		name    string
		caption string
		ok      bool
	}{
		{"##Image##site_plan##Figure 1: Site Plan##", "site_plan", "Figure 1: Site Plan", true},
		{"##Image##logo####", "logo", "", true},
		{"##Picture##logo##cap##", "", "", false},
		{"##Image##only", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			name, caption, ok := parseImageMarker(tt.marker)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.caption, caption)
		})
	}
}
