// Package rewrite compiles the //bitpat:match switch statements of a Go file
// in place.
//
// Work happens in two passes. The plan pass parses and compiles every marked
// switch and builds the replacement nodes; it can fail. The apply pass splices
// those nodes into the tree with astutil.Apply and cannot fail, so a file
// whose plan failed is left unmodified.
package rewrite

import (
	"go/ast"
	"go/token"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnoswap-labs/bitpat/internal/directive"
	"github.com/gnoswap-labs/bitpat/internal/pattern"
)

// Config controls the code the rewriter emits.
type Config struct {
	// Base is the literal base of case alternatives.
	Base pattern.Base
	// MaxAlternatives caps the alternatives of a single case. Zero means no
	// limit.
	MaxAlternatives int
}

// Rewriter rewrites the files of one token.FileSet.
type Rewriter struct {
	fset   *token.FileSet
	cfg    Config
	logger *zap.Logger
}

func New(fset *token.FileSet, cfg Config, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{fset: fset, cfg: cfg, logger: logger}
}

// Rewrite compiles every //bitpat:match switch found in the //bitpat:scan
// functions of f and returns how many switches were rewritten. The first
// error aborts the whole file before anything is modified.
func (r *Rewriter) Rewrite(f *ast.File) (int, error) {
	idx := directive.ParseComments(f, r.fset)

	var plans []*switchPlan
	for _, fn := range scannedFuncs(f, idx) {
		fnPlans, errs := r.planFunc(fn, idx)
		if len(errs) > 0 {
			return 0, errs[0]
		}
		plans = append(plans, fnPlans...)
	}
	if len(plans) == 0 {
		return 0, nil
	}

	r.apply(f, plans)
	return len(plans), nil
}

// Check reports every problem Rewrite would fail on, along with misplaced
// directives and pattern literals Rewrite would silently leave alone. f is
// not modified.
func (r *Rewriter) Check(f *ast.File) []*Error {
	idx := directive.ParseComments(f, r.fset)

	var problems []*Error
	inside := make(map[*ast.SwitchStmt]bool)
	for _, fn := range scannedFuncs(f, idx) {
		ast.Inspect(fn.Body, func(n ast.Node) bool {
			if sw, ok := n.(*ast.SwitchStmt); ok {
				inside[sw] = true
			}
			return true
		})

		plans, errs := r.planFunc(fn, idx)
		problems = append(problems, errs...)
		for _, p := range plans {
			for _, c := range p.cases {
				if c.unhandled != nil {
					problems = append(problems, r.errorAt(c.unhandled.Pos(), c.unhandled.End(), ErrUnhandledPattern))
				}
			}
		}
	}

	for _, d := range idx.All() {
		c := d.Comment
		switch d.Kind {
		case directive.Unknown:
			problems = append(problems, r.errorAt(c.Pos(), c.End(), ErrUnknownDirective))
		case directive.Scan:
			if d.Target == nil {
				problems = append(problems, r.errorAt(c.Pos(), c.End(), ErrStrayScan))
			}
		case directive.Match, directive.Handled:
			sw, ok := d.Target.(*ast.SwitchStmt)
			if !ok {
				problems = append(problems, r.errorAt(c.Pos(), c.End(), ErrStrayDirective))
				continue
			}
			if d.Kind == directive.Match && !inside[sw] {
				problems = append(problems, r.errorAt(sw.Pos(), sw.Body.Lbrace, ErrOutsideScan))
			}
		}
	}
	return problems
}

func scannedFuncs(f *ast.File, idx *directive.Index) []*ast.FuncDecl {
	var fns []*ast.FuncDecl
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Body != nil && idx.Scanned(fn) {
			fns = append(fns, fn)
		}
	}
	return fns
}

// planFunc plans every marked switch of fn, nested ones included. Plans of
// switches with errors are returned too, holding the cases that compiled.
func (r *Rewriter) planFunc(fn *ast.FuncDecl, idx *directive.Index) ([]*switchPlan, []*Error) {
	var (
		plans []*switchPlan
		errs  []*Error
	)
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		sw, ok := n.(*ast.SwitchStmt)
		if !ok {
			return true
		}
		d, ok := idx.Switch(sw)
		if !ok || d.Kind != directive.Match {
			return true
		}
		p, swErrs := r.planSwitch(sw, d)
		errs = append(errs, swErrs...)
		if p == nil {
			return true
		}
		r.logger.Debug("planned switch",
			zap.String("func", fn.Name.Name),
			zap.String("pos", r.fset.Position(sw.Pos()).String()),
			zap.Int("cases", len(p.cases)))
		plans = append(plans, p)
		return true
	})
	return plans, errs
}

// apply splices the planned nodes into f.
func (r *Rewriter) apply(f *ast.File, plans []*switchPlan) {
	switches := make(map[*ast.SwitchStmt]*switchPlan, len(plans))
	clauses := make(map[*ast.CaseClause]*casePlan)
	for _, p := range plans {
		switches[p.stmt] = p
		for _, c := range p.cases {
			clauses[c.clause] = c
		}
	}

	var removed []*ast.CaseClause
	astutil.Apply(f, nil, func(c *astutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.CaseClause:
			if cp, ok := clauses[n]; ok && !r.applyCase(cp) {
				removed = append(removed, n)
				c.Delete()
			}
		case *ast.SwitchStmt:
			if p, ok := switches[n]; ok {
				p.directive.MarkHandled()
			}
		}
		return true
	})

	// comments of removed clauses would otherwise attach to their neighbours
	if len(removed) > 0 {
		f.Comments = slices.DeleteFunc(f.Comments, func(cg *ast.CommentGroup) bool {
			return slices.ContainsFunc(removed, func(cc *ast.CaseClause) bool {
				return cc.Pos() <= cg.Pos() && cg.End() <= cc.End()
			})
		})
	}
}

// applyCase rewrites one clause. It reports false when every alternative of
// the clause is already claimed by an earlier clause and the clause must go.
func (r *Rewriter) applyCase(c *casePlan) bool {
	p := c.owner
	switch {
	case c.tuple:
		c.clause.List = c.list
	case c.arm != nil:
		compiled := c.arm.Positions[0]
		pos := c.clause.List[0].Pos()
		var list []ast.Expr
		for _, v := range compiled.Values {
			if p.seen[v] {
				continue
			}
			p.seen[v] = true
			list = append(list, r.literal(v, compiled.Pattern.Len(), pos))
		}
		if len(list) == 0 {
			r.logger.Warn("removing case shadowed by earlier cases",
				zap.String("pos", r.fset.Position(c.clause.Pos()).String()),
				zap.String("pattern", compiled.Pattern.Source))
			return false
		}
		if dropped := len(compiled.Values) - len(list); dropped > 0 {
			r.logger.Debug("dropped alternatives claimed by earlier cases",
				zap.String("pattern", compiled.Pattern.Source),
				zap.Int("dropped", dropped))
		}
		c.clause.List = list
	default:
		if !p.tuple {
			return r.claimConstants(c)
		}
		return true
	}

	c.clause.Body = append(c.prelude, c.clause.Body...)
	return true
}

// claimConstants records the integer literals of an untouched clause. A
// literal an earlier pattern case already claimed is dropped, as it could
// never match; the clause goes once nothing is left of it.
func (r *Rewriter) claimConstants(c *casePlan) bool {
	if c.clause.List == nil {
		return true // default
	}
	p := c.owner
	var list []ast.Expr
	for _, e := range c.clause.List {
		v, ok := intValue(e)
		if !ok {
			list = append(list, e)
			continue
		}
		if p.seen[v] {
			r.logger.Warn("dropping constant claimed by earlier cases",
				zap.String("pos", r.fset.Position(e.Pos()).String()),
				zap.Uint64("value", v))
			continue
		}
		p.seen[v] = true
		list = append(list, e)
	}
	c.clause.List = list
	return len(list) > 0
}
