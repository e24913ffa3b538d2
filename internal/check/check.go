// Package check reports bit pattern switches the rewriter would reject or
// skip, without rewriting anything.
package check

import (
	"errors"

	"golang.org/x/tools/go/analysis"

	"github.com/gnoswap-labs/bitpat/internal/rewrite"
	tt "github.com/gnoswap-labs/bitpat/internal/types"
)

// Diagnostic categories.
const (
	// CategoryInvalid marks problems that make the rewrite fail.
	CategoryInvalid   = "invalid"
	CategoryDirective = "directive"
	CategoryUnhandled = "unhandled"
)

var maxAlternatives int

var Analyzer = &analysis.Analyzer{
	Name: "bitpat",
	Doc:  "reports //bitpat:match switches that cannot be compiled and misplaced //bitpat: directives",
	Run:  run,
}

func init() {
	Analyzer.Flags.IntVar(&maxAlternatives, "max-alternatives", 0, "maximum alternatives per case (0 means unlimited)")
}

func run(pass *analysis.Pass) (interface{}, error) {
	r := rewrite.New(pass.Fset, rewrite.Config{MaxAlternatives: maxAlternatives}, nil)
	for _, f := range pass.Files {
		for _, p := range r.Check(f) {
			pass.Report(analysis.Diagnostic{
				Pos:      p.Pos,
				End:      p.End,
				Category: category(p.Err),
				Message:  p.Err.Error(),
			})
		}
	}
	return nil, nil
}

func category(err error) string {
	switch {
	case errors.Is(err, rewrite.ErrUnhandledPattern):
		return CategoryUnhandled
	case errors.Is(err, rewrite.ErrStrayDirective),
		errors.Is(err, rewrite.ErrStrayScan),
		errors.Is(err, rewrite.ErrOutsideScan):
		return CategoryDirective
	default:
		return CategoryInvalid
	}
}

// Run checks one file. Problems that would make the rewrite fail are errors;
// everything else is a warning.
func Run(filename string, src []byte) ([]tt.Issue, error) {
	issues, err := tt.RunAnalyzer(filename, src, Analyzer)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		issues[i].Severity = tt.SeverityWarning
		if issues[i].Category == CategoryInvalid {
			issues[i].Severity = tt.SeverityError
		}
	}
	return issues, nil
}
