package imports_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// The logging packages must stay off the old framework module and the
// rotation and HTTP stacks it pulled in.
func TestNoLegacyImports(t *testing.T) {
	root := filepath.Clean("../..")
	legacy := []string{
		"\"github.com/leeforge/framework",
		"\"leeforge/frame-core",
		"\"gopkg.in/natefinch/lumberjack",
		"\"github.com/go-chi/chi",
	}
	var hits []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "internaltests") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := string(b)
		for _, k := range legacy {
			if strings.Contains(content, k) {
				hits = append(hits, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(hits) > 0 {
		t.Fatalf("legacy imports found: %v", hits[:min(10, len(hits))])
	}
}
