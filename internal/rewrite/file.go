package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"slices"
	"strings"
)

// Header starts every generated file.
const Header = "// Code generated by bitpat. DO NOT EDIT.\n\n"

// IsGenerated reports whether src was produced by bitpat.
func IsGenerated(src []byte) bool {
	return bytes.HasPrefix(src, []byte(strings.TrimSpace(Header)))
}

// StripBuildTag removes the `//go:build tag` constraint (and its legacy
// `// +build tag` twin) from the comments preceding the package clause. It
// reports whether a constraint was removed.
func StripBuildTag(f *ast.File, tag string) bool {
	if tag == "" {
		return false
	}
	constraints := []string{"//go:build " + tag, "// +build " + tag}

	removed := false
	f.Comments = slices.DeleteFunc(f.Comments, func(cg *ast.CommentGroup) bool {
		if cg.Pos() >= f.Package {
			return false
		}
		cg.List = slices.DeleteFunc(cg.List, func(c *ast.Comment) bool {
			if slices.Contains(constraints, strings.TrimSpace(c.Text)) {
				removed = true
				return true
			}
			return false
		})
		if len(cg.List) > 0 {
			return false
		}
		if f.Doc == cg {
			f.Doc = nil
		}
		return true
	})
	return removed
}

// Format prints f with the generated-code header.
func Format(fset *token.FileSet, f *ast.File) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Header)
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, fmt.Errorf("formatting output: %w", err)
	}
	return buf.Bytes(), nil
}
