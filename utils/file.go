package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 列出目录下指定扩展名（不区分大小写）的普通文件，按文件名排序
func ListFilesWithExt(dir, ext string) (files []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return
}

// 输出文件路径：输出目录 + 前缀 + 源文件名
func GetPrefixedPath(dstDir, prefix, src string) string {
	return filepath.Join(dstDir, prefix+filepath.Base(src))
}

// 同目录下的唯一临时文件路径，保留原扩展名以便驱动识别
func GetTmpSibling(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + uuid.NewString() + ext
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

// 判断两个路径是否指向同一文件（任一不存在时按清理后的路径比较）
func SamePath(a, b string) bool {
	ia, ea := os.Stat(a)
	ib, eb := os.Stat(b)
	if ea == nil && eb == nil {
		return os.SameFile(ia, ib)
	}
	return filepath.Clean(a) == filepath.Clean(b)
}
