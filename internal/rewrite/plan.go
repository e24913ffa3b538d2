package rewrite

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/bitpat/internal/compiler"
	"github.com/gnoswap-labs/bitpat/internal/directive"
)

type switchPlan struct {
	stmt      *ast.SwitchStmt
	directive *directive.Directive
	// subjects holds the tag, or the tag's elements for a tuple switch.
	subjects []ast.Expr
	tuple    bool
	cases    []*casePlan
	// seen collects the constants claimed by the cases applied so far.
	seen map[uint64]bool
}

type casePlan struct {
	owner  *switchPlan
	clause *ast.CaseClause
	// arm is nil for clauses left untouched.
	arm   *compiler.Arm
	tuple bool
	// list replaces the case expressions of a tuple clause.
	list []ast.Expr
	// prelude holds the binding statements prepended to the body.
	prelude []ast.Stmt
	// unhandled is a pattern literal in a clause shape that is not rewritten.
	unhandled ast.Expr
}

func (r *Rewriter) planSwitch(sw *ast.SwitchStmt, d *directive.Directive) (*switchPlan, []*Error) {
	if sw.Tag == nil {
		return nil, []*Error{r.errorAt(sw.Pos(), sw.Body.Lbrace, ErrNoTag)}
	}

	p := &switchPlan{
		stmt:      sw,
		directive: d,
		subjects:  []ast.Expr{sw.Tag},
		seen:      make(map[uint64]bool),
	}
	if elts, ok := tupleElements(sw.Tag); ok {
		p.subjects = elts
		p.tuple = true
	}

	var errs []*Error
	for _, stmt := range sw.Body.List {
		clause, ok := stmt.(*ast.CaseClause)
		if !ok {
			continue
		}
		c, err := r.planCase(p, clause)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		p.cases = append(p.cases, c)
	}
	return p, errs
}

func (r *Rewriter) planCase(p *switchPlan, clause *ast.CaseClause) (*casePlan, *Error) {
	c := &casePlan{owner: p, clause: clause}
	if len(clause.List) != 1 {
		c.unhandled = findPattern(clause.List)
		return c, nil
	}

	expr := clause.List[0]
	var positions []compiler.Position
	switch e := expr.(type) {
	case *ast.BasicLit:
		src, ok := patternText(e)
		if !ok {
			return c, nil
		}
		if p.tuple {
			return nil, r.errorAt(e.Pos(), e.End(), ErrTupleSubject)
		}
		positions = []compiler.Position{{Pattern: src, IsPattern: true}}
	case *ast.CompositeLit:
		if findPattern(e.Elts) == nil {
			return c, nil
		}
		if !p.tuple {
			c.unhandled = e
			return c, nil
		}
		if len(e.Elts) != len(p.subjects) {
			return nil, r.errorAt(e.Pos(), e.End(),
				fmt.Errorf("%w: case has %d elements, tag has %d", ErrArityMismatch, len(e.Elts), len(p.subjects)))
		}
		for _, elt := range e.Elts {
			src, ok := patternText(elt)
			positions = append(positions, compiler.Position{Pattern: src, IsPattern: ok})
		}
		c.tuple = true
	default:
		return c, nil
	}

	arm, err := compiler.Compile(positions, compiler.Options{MaxAlternatives: r.cfg.MaxAlternatives})
	if err != nil {
		return nil, r.errorAt(expr.Pos(), expr.End(), err)
	}
	c.arm = arm

	if c.tuple {
		if c.list, err = r.tupleList(expr.(*ast.CompositeLit), arm); err != nil {
			return nil, r.errorAt(expr.Pos(), expr.End(), err)
		}
	}

	used := referenced(clause.Body)
	for _, b := range arm.Effective() {
		name := b.Capture.Name
		if !token.IsIdentifier(name) {
			return nil, r.errorAt(expr.Pos(), expr.End(), fmt.Errorf("%w: %q", ErrInvalidName, name))
		}
		if name == "_" || !used[name] {
			r.logger.Debug("skipping unused capture", zap.String("name", name))
			continue
		}
		if b.Extraction.Width > 64 {
			return nil, r.errorAt(expr.Pos(), expr.End(),
				fmt.Errorf("%w: capture %s needs %d bits", ErrNoIntegerType, name, b.Capture.Range.Width()))
		}
		subject, err := detach(r.fset, p.subjects[b.Position], clause.Colon)
		if err != nil {
			return nil, r.errorAt(expr.Pos(), expr.End(), err)
		}
		c.prelude = append(c.prelude, bindingStmt(b, subject, clause.Colon))
	}
	return c, nil
}

// tupleList builds one array literal per combination of alternatives, all
// placed where lit was. Pass-through elements are copied into every literal.
func (r *Rewriter) tupleList(lit *ast.CompositeLit, arm *compiler.Arm) ([]ast.Expr, error) {
	combos, err := arm.Combinations(r.cfg.MaxAlternatives)
	if err != nil {
		return nil, err
	}

	pos := lit.Pos()
	list := make([]ast.Expr, 0, len(combos))
	for _, combo := range combos {
		typ, err := detach(r.fset, lit.Type, pos)
		if err != nil {
			return nil, err
		}
		elts := make([]ast.Expr, len(combo))
		for i, v := range combo {
			compiled := arm.Positions[i]
			if compiled.Pattern != nil {
				elts[i] = r.literal(v, compiled.Pattern.Len(), pos)
				continue
			}
			if elts[i], err = detach(r.fset, lit.Elts[i], pos); err != nil {
				return nil, err
			}
		}
		list = append(list, &ast.CompositeLit{Type: typ, Lbrace: pos, Elts: elts, Rbrace: pos})
	}
	return list, nil
}

// tupleElements reports the elements of an array literal tag.
func tupleElements(tag ast.Expr) ([]ast.Expr, bool) {
	lit, ok := tag.(*ast.CompositeLit)
	if !ok {
		return nil, false
	}
	if _, ok := lit.Type.(*ast.ArrayType); !ok {
		return nil, false
	}
	for _, elt := range lit.Elts {
		if _, ok := elt.(*ast.KeyValueExpr); ok {
			return nil, false
		}
	}
	return lit.Elts, true
}

// patternText returns the value of a string literal.
func patternText(e ast.Expr) (string, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// findPattern returns the first string literal among exprs, looking one
// level into array literals.
func findPattern(exprs []ast.Expr) ast.Expr {
	for _, e := range exprs {
		if _, ok := patternText(e); ok {
			return e
		}
		if lit, ok := e.(*ast.CompositeLit); ok {
			if found := findPattern(lit.Elts); found != nil {
				return found
			}
		}
	}
	return nil
}

// referenced collects the names a case body reads. Names being declared,
// field names and struct literal keys do not count, nor do reads of a name
// in the scope of a declaration that hides it.
func referenced(body []ast.Stmt) map[string]bool {
	used := make(map[string]bool)
	declared := make(map[string]bool)
	for _, stmt := range body {
		reads := make(map[string]bool)
		collectIdents(stmt, reads)
		for name := range reads {
			if !declared[name] {
				used[name] = true
			}
		}
		for _, name := range declaredNames(stmt) {
			declared[name] = true
		}
	}
	return used
}

func collectIdents(root ast.Node, names map[string]bool) {
	visit := func(nodes ...ast.Node) {
		for _, n := range nodes {
			if n != nil {
				collectIdents(n, names)
			}
		}
	}
	// hide collects the reads of nodes, less the hidden names.
	hide := func(hidden []string, nodes ...ast.Node) {
		inner := make(map[string]bool)
		for _, n := range nodes {
			if n != nil {
				collectIdents(n, inner)
			}
		}
		for _, name := range hidden {
			delete(inner, name)
		}
		for name := range inner {
			names[name] = true
		}
	}
	merge := func(reads map[string]bool) {
		for name := range reads {
			names[name] = true
		}
	}
	ast.Inspect(root, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.SelectorExpr:
			visit(n.X)
			return false
		case *ast.BlockStmt:
			merge(referenced(n.List))
			return false
		case *ast.CaseClause:
			for _, e := range n.List {
				visit(e)
			}
			merge(referenced(n.Body))
			return false
		case *ast.IfStmt:
			visit(n.Init)
			hide(declaredNames(n.Init), n.Cond, n.Body, n.Else)
			return false
		case *ast.ForStmt:
			visit(n.Init)
			hide(declaredNames(n.Init), n.Cond, n.Post, n.Body)
			return false
		case *ast.SwitchStmt:
			visit(n.Init)
			hide(declaredNames(n.Init), n.Tag, n.Body)
			return false
		case *ast.TypeSwitchStmt:
			visit(n.Init, n.Assign)
			hide(append(declaredNames(n.Init), declaredNames(n.Assign)...), n.Body)
			return false
		case *ast.RangeStmt:
			if n.Tok != token.DEFINE {
				return true
			}
			var hidden []string
			for _, e := range []ast.Expr{n.Key, n.Value} {
				if id, ok := e.(*ast.Ident); ok {
					hidden = append(hidden, id.Name)
				}
			}
			visit(n.X)
			hide(hidden, n.Body)
			return false
		case *ast.FuncLit:
			var params []string
			for _, list := range []*ast.FieldList{n.Type.Params, n.Type.Results} {
				if list == nil {
					continue
				}
				for _, field := range list.List {
					visit(field.Type)
					for _, id := range field.Names {
						params = append(params, id.Name)
					}
				}
			}
			hide(params, n.Body)
			return false
		case *ast.AssignStmt:
			if n.Tok != token.DEFINE {
				return true
			}
			for _, lhs := range n.Lhs {
				if _, ok := lhs.(*ast.Ident); !ok {
					visit(lhs)
				}
			}
			for _, rhs := range n.Rhs {
				visit(rhs)
			}
			return false
		case *ast.Field:
			visit(n.Type)
			return false
		case *ast.ValueSpec:
			visit(n.Type)
			for _, v := range n.Values {
				visit(v)
			}
			return false
		case *ast.CompositeLit:
			if _, ok := n.Type.(*ast.MapType); ok {
				return true
			}
			visit(n.Type)
			for _, elt := range n.Elts {
				kv, ok := elt.(*ast.KeyValueExpr)
				if !ok {
					visit(elt)
					continue
				}
				if _, ok := kv.Key.(*ast.Ident); !ok {
					visit(kv.Key)
				}
				visit(kv.Value)
			}
			return false
		case *ast.Ident:
			names[n.Name] = true
		}
		return true
	})
}

// declaredNames lists the names a statement declares in its own scope.
func declaredNames(stmt ast.Stmt) []string {
	var names []string
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		if s.Tok != token.DEFINE {
			return nil
		}
		for _, lhs := range s.Lhs {
			if id, ok := lhs.(*ast.Ident); ok {
				names = append(names, id.Name)
			}
		}
	case *ast.DeclStmt:
		gen, ok := s.Decl.(*ast.GenDecl)
		if !ok {
			return nil
		}
		for _, spec := range gen.Specs {
			switch spec := spec.(type) {
			case *ast.ValueSpec:
				for _, id := range spec.Names {
					names = append(names, id.Name)
				}
			case *ast.TypeSpec:
				names = append(names, spec.Name.Name)
			}
		}
	}
	return names
}

// intValue evaluates an integer literal case expression.
func intValue(e ast.Expr) (uint64, bool) {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0, false
	}
	v, err := strconv.ParseUint(lit.Value, 0, 64)
	return v, err == nil
}
