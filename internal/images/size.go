package images

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"
)

const (
	// EMUPerInch 每英寸的 EMU 数
	EMUPerInch = 914400
	// DefaultWidthInches 图片默认宽度
	DefaultWidthInches = 6.0
)

// PixelSize 读取图片的像素尺寸，只解析文件头
func PixelSize(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("打开图片失败: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("解析图片 %s 失败: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("图片 %s (%s) 尺寸无效: %dx%d", path, format, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// InchesToEMU 英寸转换为 EMU
func InchesToEMU(inches float64) int64 {
	return int64(inches * EMUPerInch)
}

// FitWidth 按固定宽度等比缩放，返回 EMU 尺寸
func FitWidth(path string, widthEMU int64) (int64, int64, error) {
	w, h, err := PixelSize(path)
	if err != nil {
		return 0, 0, err
	}
	return widthEMU, widthEMU * int64(h) / int64(w), nil
}
