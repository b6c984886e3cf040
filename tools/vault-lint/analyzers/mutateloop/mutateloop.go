// Package mutateloop detects live-query writes inside loops.
package mutateloop

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects Mutate/Refresh calls inside loops. Each call recomputes
// every live view, so a loop of them should be one Mutate around the loop.
var Analyzer = &analysis.Analyzer{
	Name:     "mutateloop",
	Doc:      "detects LiveQuery Mutate/Refresh calls inside loops that should be one write",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// refreshingMethods recompute all live views when called.
var refreshingMethods = map[string]bool{
	"Mutate":  true,
	"Refresh": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Goroutines and callbacks started in a loop run on their own.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			methodName := sel.Sel.Name
			if refreshingMethods[methodName] {
				pass.Reportf(call.Pos(),
					"%s called inside loop refreshes every view per iteration - wrap the loop in one Mutate",
					methodName)
			}

			return true
		})
	})

	return nil, nil
}
