package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"

	"github.com/gnoswap-labs/bitpat/internal/compiler"
	"github.com/gnoswap-labs/bitpat/internal/pattern"
)

func (r *Rewriter) literal(v uint64, n int, pos token.Pos) *ast.BasicLit {
	return &ast.BasicLit{ValuePos: pos, Kind: token.INT, Value: pattern.FormatValue(v, n, r.cfg.Base)}
}

// bindingStmt builds `name := uintW(subject>>shift) & mask` with every node
// at pos. The shift is applied before narrowing so fields above the target
// width survive.
func bindingStmt(b compiler.Binding, subject ast.Expr, pos token.Pos) ast.Stmt {
	x := subject
	if b.Extraction.Shift > 0 {
		x = &ast.BinaryExpr{
			X:  operand(subject),
			Op: token.SHR,
			Y:  &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(b.Extraction.Shift)},
		}
	}
	value := &ast.BinaryExpr{
		X:  &ast.CallExpr{Fun: ast.NewIdent(b.Extraction.TypeName()), Args: []ast.Expr{x}},
		Op: token.AND,
		Y:  &ast.BasicLit{Kind: token.INT, Value: b.Extraction.MaskLiteral()},
	}
	stmt := &ast.AssignStmt{
		Lhs: []ast.Expr{ast.NewIdent(b.Capture.Name)},
		Tok: token.DEFINE,
		Rhs: []ast.Expr{value},
	}
	moveTo(stmt, pos)
	return stmt
}

// operand parenthesizes e unless it binds tighter than any binary operator.
func operand(e ast.Expr) ast.Expr {
	switch e.(type) {
	case *ast.Ident, *ast.BasicLit, *ast.SelectorExpr, *ast.CallExpr,
		*ast.IndexExpr, *ast.IndexListExpr, *ast.ParenExpr, *ast.CompositeLit:
		return e
	}
	return &ast.ParenExpr{X: e}
}

// detach returns a deep copy of e with every position set to pos.
func detach(fset *token.FileSet, e ast.Expr, pos token.Pos) (ast.Expr, error) {
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, e); err != nil {
		return nil, fmt.Errorf("copying expression: %w", err)
	}
	x, err := parser.ParseExpr(buf.String())
	if err != nil {
		return nil, fmt.Errorf("copying expression: %w", err)
	}
	moveTo(x, pos)
	return x, nil
}

var posType = reflect.TypeOf(token.NoPos)

// moveTo sets every position of the tree rooted at root to pos. The printer
// places comments by position: nodes without one let it flush the file's
// comments into the middle of generated code.
func moveTo(root ast.Node, pos token.Pos) {
	ast.Inspect(root, func(n ast.Node) bool {
		if n != nil {
			setPos(n, pos)
		}
		return true
	})
}

func setPos(n ast.Node, pos token.Pos) {
	v := reflect.ValueOf(n)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Type() == posType && f.CanSet() {
			f.SetInt(int64(pos))
		}
	}
}
