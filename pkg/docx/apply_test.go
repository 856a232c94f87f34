package docx

import (
	"archive/zip"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// readZipEntry 读取已保存 docx 中的一个条目
func readZipEntry(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("条目 %s 不存在", name)
	return ""
}

func TestApply_RunTextRoundTrip(t *testing.T) {
	pkg, err := Open(buildDocument(t, para("Excel", "G21 is the score")+para("untouched")))
	require.NoError(t, err)

	doc, binding, err := Load(pkg)
	require.NoError(t, err)

	doc.Body[0].Runs[0].Text = "80.0"
	doc.Body[0].Runs[1].Text = " is the score"
	require.NoError(t, binding.Apply(doc))

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, pkg.Save(out))

	reopened, err := Open(out)
	require.NoError(t, err)
	doc2, _, err := Load(reopened)
	require.NoError(t, err)

	require.Len(t, doc2.Body, 2)
	require.Len(t, doc2.Body[0].Runs, 2)
	assert.Equal(t, "80.0", doc2.Body[0].Runs[0].Text)
	assert.Equal(t, " is the score", doc2.Body[0].Runs[1].Text)
	// 格式信息保留
	assert.Contains(t, doc2.Body[0].Runs[1].Props, "b")
	assert.Equal(t, "untouched", doc2.Body[1].Text())

	xml := readZipEntry(t, out, "word/document.xml")
	assert.Contains(t, xml, `<w:t xml:space="preserve"> is the score</w:t>`)
}

func TestApply_EmptiedRunKept(t *testing.T) {
	pkg, err := Open(buildDocument(t, para("a", "b", "c")))
	require.NoError(t, err)
	doc, binding, err := Load(pkg)
	require.NoError(t, err)

	doc.Body[0].Runs[1].Text = ""
	require.NoError(t, binding.Apply(doc))

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, pkg.Save(out))
	xml := readZipEntry(t, out, "word/document.xml")
	assert.Equal(t, 3, strings.Count(xml, "<w:r>"))
}

func TestApply_RunCountMismatch(t *testing.T) {
	pkg, err := Open(buildDocument(t, para("a", "b")))
	require.NoError(t, err)
	doc, binding, err := Load(pkg)
	require.NoError(t, err)

	doc.Body[0].Runs = doc.Body[0].Runs[:1]
	assert.Error(t, binding.Apply(doc))
}

func TestApply_PictureAndCaption(t *testing.T) {
	pkg, err := Open(buildDocument(t, para("before")+
		`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>##Image##plan##Figure 1##</w:t></w:r></w:p>`+
		para("after")))
	require.NoError(t, err)
	doc, binding, err := Load(pkg)
	require.NoError(t, err)

	img := writeTestPNG(t, 20, 10)
	doc.Body[1].Runs = []domain.Run{{Picture: &domain.Picture{Path: img, Name: "plan.png", WidthEMU: 5486400, HeightEMU: 2743200}}}
	doc.Body = append(doc.Body[:2], append([]domain.Paragraph{{Style: "Caption", Runs: []domain.Run{{Text: "Figure 1"}}}}, doc.Body[2:]...)...)
	require.NoError(t, binding.Apply(doc))

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, pkg.Save(out))

	xml := readZipEntry(t, out, "word/document.xml")
	assert.Contains(t, xml, `<w:jc w:val="center"/>`)
	assert.Contains(t, xml, `cx="5486400"`)
	assert.Contains(t, xml, `cy="2743200"`)
	assert.Contains(t, xml, `r:embed="rId1"`)
	assert.Contains(t, xml, `xmlns:wp=`)
	assert.NotContains(t, xml, "##Image##")
	assert.Less(t, strings.Index(xml, "w:drawing"), strings.Index(xml, `<w:pStyle w:val="Caption"/>`))
	assert.Less(t, strings.Index(xml, "Figure 1"), strings.Index(xml, "after"))

	rels := readZipEntry(t, out, "word/_rels/document.xml.rels")
	assert.Contains(t, rels, `Target="media/filler_image1.png"`)
	types := readZipEntry(t, out, "[Content_Types].xml")
	assert.Contains(t, types, `Extension="png"`)
	assert.NotEmpty(t, readZipEntry(t, out, "word/media/filler_image1.png"))

	reopened, err := Open(out)
	require.NoError(t, err)
	doc2, _, err := Load(reopened)
	require.NoError(t, err)
	require.Len(t, doc2.Body, 4)
	assert.Equal(t, "Caption", doc2.Body[2].Style)
	assert.Equal(t, "Figure 1", doc2.Body[2].Text())
}

func TestApply_NewParagraphWithoutPredecessor(t *testing.T) {
	pkg, err := Open(buildDocument(t, para("x")))
	require.NoError(t, err)
	doc, binding, err := Load(pkg)
	require.NoError(t, err)

	doc.Body = append([]domain.Paragraph{{Runs: []domain.Run{{Text: "orphan"}}}}, doc.Body...)
	assert.Error(t, binding.Apply(doc))
}

func TestSave_UnchangedPartsCopied(t *testing.T) {
	path := buildDOCXFromXML(t, map[string]string{
		"word/document.xml": documentXML(para("x")),
		"word/styles.xml":   `<w:styles ` + wordNS + `/>`,
	})
	pkg, err := Open(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "copy.docx")
	require.NoError(t, pkg.Save(out))

	assert.Equal(t, `<w:styles `+wordNS+`/>`, readZipEntry(t, out, "word/styles.xml"))
	assert.ElementsMatch(t, pkg.Parts(), mustParts(t, out))
}

func mustParts(t *testing.T, path string) []string {
	t.Helper()
	pkg, err := Open(path)
	require.NoError(t, err)
	return pkg.Parts()
}

func TestApply_TabsAndBreaksKept(t *testing.T) {
	body := `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Score:</w:t><w:tab/><w:t>ExcelA1</w:t><w:br/><w:t>next line</w:t></w:r></w:p>`
	pkg, err := Open(buildDocument(t, body))
	require.NoError(t, err)
	doc, binding, err := Load(pkg)
	require.NoError(t, err)
	require.Equal(t, "Score:\tExcelA1\nnext line", doc.Body[0].Text())

	doc.Body[0].Runs[0].Text = "Score:\tVALUE\nnext line"
	require.NoError(t, binding.Apply(doc))

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, pkg.Save(out))
	xml := readZipEntry(t, out, "word/document.xml")
	assert.Contains(t, xml, `<w:r><w:rPr><w:b/></w:rPr><w:t>Score:</w:t><w:tab/><w:t>VALUE</w:t><w:br/><w:t>next line</w:t></w:r>`)

	reopened, err := Open(out)
	require.NoError(t, err)
	doc2, _, err := Load(reopened)
	require.NoError(t, err)
	assert.Equal(t, "Score:\tVALUE\nnext line", doc2.Body[0].Text())
}

func TestSetRunText(t *testing.T) {
	tests := []struct {
		name     string
		run      string
		text     string
		expected string
	}{
		{
			name:     "same layout rewrites text in place",
			run:      `<w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:t>c</w:t></w:r>`,
			text:     "x\ty",
			expected: `<w:r><w:t>x</w:t><w:tab/><w:t>y</w:t></w:r>`,
		},
		{
			name:     "text inserted around existing tab",
			run:      `<w:r><w:rPr/><w:tab/></w:r>`,
			text:     "a\tb",
			expected: `<w:r><w:rPr/><w:t>a</w:t><w:tab/><w:t>b</w:t></w:r>`,
		},
		{
			name:     "new line in value adds break",
			run:      `<w:r><w:rPr/><w:t>ExcelA1</w:t><w:drawing/></w:r>`,
			text:     "eins\nzwei",
			expected: `<w:r><w:rPr/><w:t>eins</w:t><w:br/><w:t>zwei</w:t><w:drawing/></w:r>`,
		},
		{
			name:     "original break element reused",
			run:      `<w:r><w:t>a</w:t><w:br w:type="textWrapping"/><w:t>b</w:t></w:r>`,
			text:     "a\tb\nc",
			expected: `<w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br w:type="textWrapping"/><w:t>c</w:t></w:r>`,
		},
		{
			name:     "emptied run keeps empty text element",
			run:      `<w:r><w:t>ExcelA1</w:t></w:r>`,
			text:     "",
			expected: `<w:r><w:t/></w:r>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := etree.NewDocument()
			require.NoError(t, doc.ReadFromString(tt.run))
			r := doc.Root()

			setRunText(r, tt.text)
			assert.Equal(t, tt.text, runText(r))

			got, err := doc.WriteToString()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApply_CaptionStyleFromStylesPart(t *testing.T) {
	styles := `<w:styles ` + wordNS + `>` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Standard"><w:name w:val="Normal"/></w:style>` +
		`<w:style w:type="character" w:styleId="Caption"><w:name w:val="Caption Char"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Beschriftung"><w:name w:val="caption"/></w:style>` +
		`</w:styles>`
	pkg, err := Open(buildDOCXFromXML(t, map[string]string{
		"word/document.xml": documentXML(para("before")),
		"word/styles.xml":   styles,
	}))
	require.NoError(t, err)
	doc, binding, err := Load(pkg)
	require.NoError(t, err)

	doc.Body = append(doc.Body, domain.Paragraph{Style: "Caption", Runs: []domain.Run{{Text: "Abbildung 1"}}})
	require.NoError(t, binding.Apply(doc))

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, pkg.Save(out))
	xml := readZipEntry(t, out, "word/document.xml")
	assert.Contains(t, xml, `<w:pStyle w:val="Beschriftung"/>`)
	assert.NotContains(t, xml, `<w:pStyle w:val="Caption"/>`)
}

func TestBinding_StyleID(t *testing.T) {
	styles := `<w:styles ` + wordNS + `>` +
		`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Legende"><w:name w:val="Legende"/></w:style>` +
		`</w:styles>`
	pkg, err := Open(buildDOCXFromXML(t, map[string]string{
		"word/document.xml": documentXML(para("x")),
		"word/styles.xml":   styles,
	}))
	require.NoError(t, err)
	_, binding, err := Load(pkg)
	require.NoError(t, err)

	assert.Equal(t, "Heading1", binding.styleID("Heading 1"))
	assert.Equal(t, "Heading1", binding.styleID("heading1"))
	assert.Equal(t, "Legende", binding.styleID("Legende"))
	assert.Equal(t, "Caption", binding.styleID("Caption"))
}
