package directive

import (
	"go/ast"
	"go/token"
	"strings"
)

const Prefix = "//bitpat:"

// Kind is the verb of a directive comment.
type Kind int

const (
	Unknown Kind = iota
	// Scan marks a function whose switches are compiled.
	Scan
	// Match marks a switch statement to compile.
	Match
	// Handled replaces Match once a switch has been compiled.
	Handled
)

var verbs = map[string]Kind{
	"scan":    Scan,
	"match":   Match,
	"handled": Handled,
}

func (k Kind) String() string {
	for verb, kind := range verbs {
		if kind == k {
			return verb
		}
	}
	return "unknown"
}

// Directive is a single //bitpat: comment and the node it applies to.
type Directive struct {
	Kind    Kind
	Comment *ast.Comment
	// Target is the *ast.FuncDecl of a Scan directive or the statement a
	// Match/Handled directive precedes. It is nil when nothing follows.
	Target ast.Node
}

// MarkHandled rewrites a Match directive so that later runs skip its switch.
func (d *Directive) MarkHandled() {
	d.Comment.Text = Prefix + Handled.String()
	d.Kind = Handled
}

// Index holds the directives of one file.
type Index struct {
	funcs    map[*ast.FuncDecl]*Directive
	switches map[*ast.SwitchStmt]*Directive
	all      []*Directive
}

// ParseComments collects the //bitpat: directives of a file and resolves
// their targets.
func ParseComments(f *ast.File, fset *token.FileSet) *Index {
	idx := &Index{
		funcs:    make(map[*ast.FuncDecl]*Directive),
		switches: make(map[*ast.SwitchStmt]*Directive),
	}
	stmtMap := indexStatementsByLine(f, fset)
	docs := make(map[*ast.Comment]bool)

	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		for _, c := range fn.Doc.List {
			if kind, ok := parseVerb(c.Text); ok && kind == Scan {
				d := &Directive{Kind: Scan, Comment: c, Target: fn}
				docs[c] = true
				idx.funcs[fn] = d
				idx.all = append(idx.all, d)
			}
		}
	}

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			kind, ok := parseVerb(c.Text)
			if !ok || docs[c] {
				continue
			}
			if kind == Scan {
				// not part of a function's doc comment
				idx.all = append(idx.all, &Directive{Kind: Scan, Comment: c})
				continue
			}
			d := &Directive{Kind: kind, Comment: c, Target: resolveStatement(fset, c, stmtMap)}
			if sw, ok := d.Target.(*ast.SwitchStmt); ok {
				idx.switches[sw] = d
			}
			idx.all = append(idx.all, d)
		}
	}

	return idx
}

// parseVerb extracts the verb of a directive comment. Unknown verbs are
// reported with ok set and Kind Unknown.
func parseVerb(text string) (Kind, bool) {
	if !strings.HasPrefix(text, Prefix) {
		return Unknown, false
	}
	verb := strings.TrimSpace(text[len(Prefix):])
	return verbs[verb], true
}

// resolveStatement finds the statement a directive comment applies to: the
// statement it trails on the same line, or else the statement on the next
// line.
func resolveStatement(fset *token.FileSet, comment *ast.Comment, stmtMap map[int]ast.Stmt) ast.Stmt {
	pos := fset.Position(comment.Slash)
	if isInlineComment(fset, comment, stmtMap) {
		return unlabel(stmtMap[pos.Line])
	}
	if stmt, exists := stmtMap[pos.Line+1]; exists {
		return unlabel(stmt)
	}
	return nil
}

func unlabel(stmt ast.Stmt) ast.Stmt {
	for {
		l, ok := stmt.(*ast.LabeledStmt)
		if !ok {
			return stmt
		}
		stmt = l.Stmt
	}
}

// Scanned reports whether fn carries a Scan directive.
func (idx *Index) Scanned(fn *ast.FuncDecl) bool {
	_, ok := idx.funcs[fn]
	return ok
}

// Switch returns the directive attached to sw, if any.
func (idx *Index) Switch(sw *ast.SwitchStmt) (*Directive, bool) {
	d, ok := idx.switches[sw]
	return d, ok
}

// All returns every directive in source order of discovery.
func (idx *Index) All() []*Directive {
	return idx.all
}

// indexStatementsByLine traverses the AST once and maps each line to its corresponding statement.
// If multiple statements exist on a single line, only the first statement is recorded.
func indexStatementsByLine(f *ast.File, fset *token.FileSet) map[int]ast.Stmt {
	stmtMap := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		if stmt, ok := n.(ast.Stmt); ok {
			line := fset.Position(stmt.Pos()).Line
			if _, exists := stmtMap[line]; !exists {
				stmtMap[line] = stmt
			}
		}
		return true
	})
	return stmtMap
}

// isInlineComment determines if a comment is inline with a statement.
// The comment is considered inline if it appears on the same line as a statement
// and its file offset is greater than the statement's starting offset.
func isInlineComment(fset *token.FileSet, comment *ast.Comment, stmtMap map[int]ast.Stmt) bool {
	pos := fset.Position(comment.Slash)
	if stmt, exists := stmtMap[pos.Line]; exists {
		stmtPos := fset.Position(stmt.Pos())
		return pos.Offset > stmtPos.Offset
	}
	return false
}
