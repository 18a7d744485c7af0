package frontend

import "testing"

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	p := NewParser(src)
	prog := p.Parse()
	if len(p.Errors()) > 0 {
		t.Fatalf("parse errors: %v", p.Errors())
	}
	return prog
}

func TestParseVarDecl(t *testing.T) {
	prog := mustParse(t, "var x = 1 + 2;")
	if len(prog.Stmts) != 1 {
		t.Fatalf("want 1 stmt, got %d", len(prog.Stmts))
	}
	decl, ok := prog.Stmts[0].(VarDecl)
	if !ok {
		t.Fatalf("want VarDecl, got %T", prog.Stmts[0])
	}
	if decl.Name != "x" {
		t.Fatalf("want name x, got %q", decl.Name)
	}
	bin, ok := decl.Value.(BinaryExpr)
	if !ok {
		t.Fatalf("want BinaryExpr, got %T", decl.Value)
	}
	if bin.Op != TokPlus {
		t.Fatalf("want +, got %v", bin.Op)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := mustParse(t, `if (x > 1) { y = 1; } else { y = 2; }`)
	ifs, ok := prog.Stmts[0].(IfStmt)
	if !ok {
		t.Fatalf("want IfStmt, got %T", prog.Stmts[0])
	}
	if ifs.Else == nil {
		t.Fatal("want an else branch")
	}
	if len(ifs.Then.Stmts) != 1 || len(ifs.Else.Stmts) != 1 {
		t.Fatalf("want one statement per branch")
	}
}

func TestParseWhileLoop(t *testing.T) {
	prog := mustParse(t, `while (i < 5) { i = i + 1; }`)
	ws, ok := prog.Stmts[0].(WhileStmt)
	if !ok {
		t.Fatalf("want WhileStmt, got %T", prog.Stmts[0])
	}
	if len(ws.Body.Stmts) != 1 {
		t.Fatalf("want one body statement, got %d", len(ws.Body.Stmts))
	}
}

func TestParseCallExpression(t *testing.T) {
	prog := mustParse(t, `print("hi", 1, x);`)
	es, ok := prog.Stmts[0].(ExprStmt)
	if !ok {
		t.Fatalf("want ExprStmt, got %T", prog.Stmts[0])
	}
	call, ok := es.Expr.(CallExpr)
	if !ok {
		t.Fatalf("want CallExpr, got %T", es.Expr)
	}
	if len(call.Args) != 3 {
		t.Fatalf("want 3 args, got %d", len(call.Args))
	}
}

func TestParseListAndIndex(t *testing.T) {
	prog := mustParse(t, `var xs = [1, 2, 3]; var y = xs[0];`)
	decl := prog.Stmts[0].(VarDecl)
	list, ok := decl.Value.(ListLit)
	if !ok {
		t.Fatalf("want ListLit, got %T", decl.Value)
	}
	if len(list.Elems) != 3 {
		t.Fatalf("want 3 elements, got %d", len(list.Elems))
	}

	decl2 := prog.Stmts[1].(VarDecl)
	idx, ok := decl2.Value.(IndexExpr)
	if !ok {
		t.Fatalf("want IndexExpr, got %T", decl2.Value)
	}
	if _, ok := idx.Recv.(Ident); !ok {
		t.Fatalf("want Ident receiver, got %T", idx.Recv)
	}
}

func TestParseAssignmentIsRightAssociativeAndLowestPrecedence(t *testing.T) {
	prog := mustParse(t, `x = y = 1;`)
	es := prog.Stmts[0].(ExprStmt)
	outer, ok := es.Expr.(AssignExpr)
	if !ok {
		t.Fatalf("want AssignExpr, got %T", es.Expr)
	}
	if outer.Name != "x" {
		t.Fatalf("want outer target x, got %q", outer.Name)
	}
	inner, ok := outer.Value.(AssignExpr)
	if !ok {
		t.Fatalf("want nested AssignExpr, got %T", outer.Value)
	}
	if inner.Name != "y" {
		t.Fatalf("want inner target y, got %q", inner.Name)
	}
}

func TestParseInvalidAssignmentTargetReportsError(t *testing.T) {
	p := NewParser(`1 = 2;`)
	p.Parse()
	if len(p.Errors()) == 0 {
		t.Fatal("want a parse error for an invalid assignment target")
	}
}
