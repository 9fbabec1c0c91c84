package enumvalidator

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "enumvalidator",
	Doc:  "checks that enum fields only use defined constants, not string literals",
	Run:  run,
}

// enumTypes are matched by type name in any package.
var enumTypes = map[string]bool{
	"RiskLabel":      true,
	"IncidentStatus": true,
	"TaskType":       true,
	"LockMode":       true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.AssignStmt:
				checkAssign(pass, n)
			case *ast.CompositeLit:
				checkCompositeLit(pass, n)
			}
			return true
		})
	}
	return nil, nil
}

func checkAssign(pass *analysis.Pass, assign *ast.AssignStmt) {
	for i, lhs := range assign.Lhs {
		if i >= len(assign.Rhs) {
			continue
		}
		sel, ok := lhs.(*ast.SelectorExpr)
		if !ok {
			continue
		}
		if isEnum(pass.TypesInfo.TypeOf(sel)) && isStringLiteral(assign.Rhs[i]) {
			pass.Reportf(assign.Pos(),
				"enum field %s assigned string literal; use defined constant instead",
				sel.Sel.Name)
		}
	}
}

func checkCompositeLit(pass *analysis.Pass, lit *ast.CompositeLit) {
	t := pass.TypesInfo.TypeOf(lit)
	if t == nil {
		return
	}
	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return
	}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key, ok := kv.Key.(*ast.Ident)
		if !ok {
			continue
		}
		field := fieldByName(st, key.Name)
		if field != nil && isEnum(field.Type()) && isStringLiteral(kv.Value) {
			pass.Reportf(kv.Pos(),
				"enum field %s set to string literal; use defined constant instead",
				key.Name)
		}
	}
}

func fieldByName(st *types.Struct, name string) *types.Var {
	for i := 0; i < st.NumFields(); i++ {
		if f := st.Field(i); f.Name() == name {
			return f
		}
	}
	return nil
}

func isEnum(t types.Type) bool {
	named, ok := t.(*types.Named)
	return ok && enumTypes[named.Obj().Name()]
}

func isStringLiteral(expr ast.Expr) bool {
	lit, ok := expr.(*ast.BasicLit)
	return ok && lit.Kind == token.STRING
}
