package scan

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

// ScanRoot walks root for exported chat JSON files, sorted by path.
// Non-export JSON files are filtered out with a cheap content probe.
func ScanRoot(root string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base == "node_modules" || base == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		if !looksLikeChatExport(path) {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// Expand resolves a mixed list of files and directories into the flat
// sorted list of chat export files they denote. Directories expand to
// their JSON members; plain files are taken as-is.
func Expand(inputs []string) ([]string, []string, error) {
	var files, skipped []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			skipped = append(skipped, in)
			continue
		}
		if info.IsDir() {
			found, err := ScanRoot(in)
			if err != nil {
				return nil, nil, err
			}
			for _, f := range found {
				files = append(files, f.Path)
			}
			continue
		}
		if filepath.Ext(in) != ".json" {
			skipped = append(skipped, in)
			continue
		}
		files = append(files, in)
	}
	return files, skipped, nil
}

// looksLikeChatExport probes the head of the file for a "requests"
// key, which every chat export carries. Avoids loading arbitrary JSON
// during directory scans.
func looksLikeChatExport(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 4096)
	n, err := f.Read(head)
	if n == 0 && err != io.EOF && err != nil {
		return false
	}
	return bytes.Contains(head[:n], []byte(`"requests"`))
}
