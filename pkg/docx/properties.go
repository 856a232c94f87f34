package docx

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
)

const (
	customPropsPart        = "docProps/custom.xml"
	customPropsContentType = "application/vnd.openxmlformats-officedocument.custom-properties+xml"
	nsCustomProperties     = "http://schemas.openxmlformats.org/officeDocument/2006/custom-properties"
	nsDocPropsVTypes       = "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"
	customPropertyFmtID    = "{D5CDD505-2E9C-101B-9397-08002B2CF9AE}"

	// HistoryProperty 保存填充历史的自定义属性名
	HistoryProperty = "DocxFillerHistory"
	propertyPrefix  = "DocxFiller_"
)

// FillRecord 一次填充的来源记录
type FillRecord struct {
	Template  string    `json:"template"`
	Workbook  string    `json:"workbook"`
	Sheet     string    `json:"sheet"`
	Values    int       `json:"values"`
	Images    int       `json:"images"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// CustomProperty 单个自定义属性
type CustomProperty struct {
	Name  string
	PID   int
	Type  string // vt 类型，如 lpwstr、i4、bool
	Value string
}

// CustomProperties docProps/custom.xml 的内容
type CustomProperties struct {
	Properties []CustomProperty
}

// Get 按名称取值
func (cp *CustomProperties) Get(name string) (string, bool) {
	for _, prop := range cp.Properties {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// Set 设置字符串属性，不存在时追加
func (cp *CustomProperties) Set(name, value string) {
	for i, prop := range cp.Properties {
		if prop.Name == name {
			cp.Properties[i].Value = value
			cp.Properties[i].Type = "lpwstr"
			return
		}
	}
	cp.Properties = append(cp.Properties, CustomProperty{
		Name:  name,
		PID:   cp.nextPID(),
		Type:  "lpwstr",
		Value: value,
	})
}

// nextPID 自定义属性的 pid 从 2 开始
func (cp *CustomProperties) nextPID() int {
	maxPID := 1
	for _, prop := range cp.Properties {
		maxPID = max(maxPID, prop.PID)
	}
	return maxPID + 1
}

// ReadCustomProperties 读取文档包中的自定义属性，部件不存在时返回空集合
func ReadCustomProperties(pkg *Package) (*CustomProperties, error) {
	props := &CustomProperties{}
	if !pkg.HasPart(customPropsPart) {
		return props, nil
	}
	doc, err := pkg.Part(customPropsPart)
	if err != nil {
		return nil, fmt.Errorf("解析自定义属性XML失败: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return props, nil
	}
	for _, p := range root.SelectElements("property") {
		prop := CustomProperty{Name: p.SelectAttrValue("name", "")}
		prop.PID, _ = strconv.Atoi(p.SelectAttrValue("pid", "0"))
		if v := p.ChildElements(); len(v) > 0 {
			prop.Type = v[0].Tag
			prop.Value = v[0].Text()
		}
		props.Properties = append(props.Properties, prop)
	}
	return props, nil
}

// WriteCustomProperties 重新生成 docProps/custom.xml，并登记内容类型和包关系
func WriteCustomProperties(pkg *Package, props *CustomProperties) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Properties")
	root.CreateAttr("xmlns", nsCustomProperties)
	root.CreateAttr("xmlns:vt", nsDocPropsVTypes)

	for _, prop := range props.Properties {
		p := root.CreateElement("property")
		p.CreateAttr("fmtid", customPropertyFmtID)
		p.CreateAttr("pid", strconv.Itoa(prop.PID))
		p.CreateAttr("name", prop.Name)
		typ := prop.Type
		if typ == "" {
			typ = "lpwstr"
		}
		p.CreateElement("vt:" + typ).SetText(prop.Value)
	}

	pkg.SetPart(customPropsPart, doc)
	if err := pkg.ensureOverrideContentType(customPropsPart, customPropsContentType); err != nil {
		return err
	}
	return pkg.ensurePackageRelationship(relTypeCustomProp, customPropsPart)
}

// History 读取填充历史
func (cp *CustomProperties) History() ([]FillRecord, error) {
	raw, ok := cp.Get(HistoryProperty)
	if !ok || raw == "" {
		return nil, nil
	}
	var records []FillRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("解析填充历史失败: %w", err)
	}
	return records, nil
}

// AddRecord 追加一条填充记录，版本号递增，并同步最近一次的概要属性
func (cp *CustomProperties) AddRecord(record FillRecord) error {
	history, err := cp.History()
	if err != nil {
		return err
	}
	record.Version = len(history) + 1
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	history = append(history, record)

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("序列化填充历史失败: %w", err)
	}
	cp.Set(HistoryProperty, string(data))
	cp.Set(propertyPrefix+"Workbook", record.Workbook)
	cp.Set(propertyPrefix+"Sheet", record.Sheet)
	cp.Set(propertyPrefix+"Values", strconv.Itoa(record.Values))
	cp.Set(propertyPrefix+"Images", strconv.Itoa(record.Images))
	cp.Set(propertyPrefix+"FilledAt", record.Timestamp.Format(time.RFC3339))
	return nil
}

// RecordProperties 将填充记录写入文档包的自定义属性
func RecordProperties(pkg *Package, record FillRecord) error {
	props, err := ReadCustomProperties(pkg)
	if err != nil {
		return err
	}
	if err := props.AddRecord(record); err != nil {
		return err
	}
	return WriteCustomProperties(pkg, props)
}
