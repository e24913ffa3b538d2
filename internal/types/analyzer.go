package types

import (
	"go/ast"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/analysis"
)

// RunAnalyzer parses src as filename and runs the analyzer on it. The pass
// carries syntax only: analyzers that need type information cannot run here.
func RunAnalyzer(filename string, src []byte, analyzer *analysis.Analyzer) ([]Issue, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	pass := &analysis.Pass{
		Analyzer: analyzer,
		Fset:     fset,
		Files:    []*ast.File{file},
		ResultOf: make(map[*analysis.Analyzer]interface{}),
		Report: func(d analysis.Diagnostic) {
			issues = append(issues, Issue{
				Rule:     analyzer.Name,
				Category: d.Category,
				Filename: filename,
				Message:  d.Message,
				Start:    fset.Position(d.Pos),
				End:      fset.Position(d.End),
			})
		},
	}

	if _, err := analyzer.Run(pass); err != nil {
		return nil, err
	}
	return issues, nil
}
