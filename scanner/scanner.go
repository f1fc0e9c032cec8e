package scanner

import (
	"os"
	"path/filepath"
	"strings"
)

// Scanner discovers the Go source files under a root directory.
type Scanner struct {
	rootDir string
}

func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// Scan walks the root directory and returns every .go file, skipping
// vendor trees, testdata directories and hidden or underscore-prefixed
// entries.
func (s *Scanner) Scan() ([]string, error) {
	var files []string
	err := filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if path != s.rootDir && skipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".go" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func skipDir(name string) bool {
	switch name {
	case "vendor", "testdata":
		return true
	}
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
