// Package images 负责按名称查找图片文件并计算插入尺寸
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultExtensions 支持的图片扩展名
var DefaultExtensions = []string{".jpeg", ".jpg", ".png", ".tiff"}

// Locator 在目录树中按名称前缀查找图片
type Locator struct {
	extensions []string
}

// NewLocator 创建图片查找器，未指定扩展名时使用 DefaultExtensions
func NewLocator(extensions ...string) *Locator {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return &Locator{extensions: normalized}
}

// Find 递归查找文件名以 name 开头且扩展名受支持的第一个文件
//
// 目录按字典序遍历，名称比较前统一做 NFC 规范化。
func (l *Locator) Find(name, root string) (string, bool, error) {
	if name == "" || root == "" {
		return "", false, nil
	}
	prefix := norm.NFC.String(name)

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := norm.NFC.String(d.Name())
		if strings.HasPrefix(base, prefix) && l.supported(base) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("查找图片 %q 失败: %w", name, err)
	}
	if found == "" {
		slog.Debug("未找到图片", "image", name, "root", root)
		return "", false, nil
	}
	return found, true, nil
}

func (l *Locator) supported(fileName string) bool {
	return slices.Contains(l.extensions, strings.ToLower(filepath.Ext(fileName)))
}

// ErrFolderNotFound 未找到指定名称的目录
var ErrFolderNotFound = errors.New("未找到目录")

// FindFolder 在 root 下递归查找名为 dirName 的目录，返回第一个匹配
func FindFolder(root, dirName string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root && d.Name() == dirName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("查找目录 %q 失败: %w", dirName, err)
	}
	if found == "" {
		return "", fmt.Errorf("%w: %s（位于 %s）", ErrFolderNotFound, dirName, root)
	}
	return found, nil
}
