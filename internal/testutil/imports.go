package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// ModulePath is the import path of this module.
const ModulePath = "github.com/cwbudde/algo-doppler"

// TransitiveImports returns every import path reachable from the non-test
// files of the package in dir, following packages of this module through
// the source tree rooted at root.
func TransitiveImports(t *testing.T, root, dir string) map[string]bool {
	t.Helper()
	seen := map[string]bool{}
	visited := map[string]bool{}

	var walk func(dir string)
	walk = func(dir string) {
		if visited[dir] {
			return
		}
		visited[dir] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("read %s: %v", dir, err)
		}
		fset := token.NewFileSet()
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", name, err)
			}
			for _, imp := range f.Imports {
				path, err := strconv.Unquote(imp.Path.Value)
				if err != nil {
					t.Fatalf("%s: bad import %s", name, imp.Path.Value)
				}
				seen[path] = true
				if rel, ok := strings.CutPrefix(path, ModulePath+"/"); ok {
					walk(filepath.Join(root, filepath.FromSlash(rel)))
				}
			}
		}
	}
	walk(dir)
	return seen
}
