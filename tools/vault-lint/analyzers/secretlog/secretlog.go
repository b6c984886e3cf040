// Package secretlog detects record values and passwords passed to the logger.
package secretlog

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports zap.SugaredLogger calls whose arguments include a record
// value, a record attribute, or a password string.
var Analyzer = &analysis.Analyzer{
	Name:     "secretlog",
	Doc:      "detects record values and password material passed to zap loggers",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

const zapPath = "go.uber.org/zap"

var logMethods = map[string]bool{
	"Debug": true, "Info": true, "Warn": true, "Error": true,
	"Debugf": true, "Infof": true, "Warnf": true, "Errorf": true,
	"Debugw": true, "Infow": true, "Warnw": true, "Errorw": true,
	"Fatalw": true, "Panicw": true,
}

// recordFields hold identity data on Record and RecordWithType.
var recordFields = map[string]bool{
	"Value": true,
	"Attr1": true,
	"Attr2": true,
	"Attr3": true,
	"Attr4": true,
	"Attr5": true,
}

var recordTypes = map[string]bool{
	"Record":         true,
	"RecordWithType": true,
}

var secretWords = []string{"password", "confirmation", "passphrase"}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !logMethods[sel.Sel.Name] {
			return
		}
		if !isSugaredLogger(pass.TypesInfo.TypeOf(sel.X)) {
			return
		}

		for _, arg := range call.Args {
			ast.Inspect(arg, func(n ast.Node) bool {
				switch e := n.(type) {
				case *ast.SelectorExpr:
					if recordFields[e.Sel.Name] && isRecord(pass.TypesInfo.TypeOf(e.X)) {
						pass.Reportf(e.Pos(), "record %s passed to %s - log the record id instead", e.Sel.Name, sel.Sel.Name)
						return false
					}
				case *ast.Ident:
					if isSecretName(e.Name) && isString(pass.TypesInfo.TypeOf(e)) {
						pass.Reportf(e.Pos(), "password material %q passed to %s", e.Name, sel.Sel.Name)
					}
				}
				return true
			})
		}
	})

	return nil, nil
}

func named(t types.Type) *types.Named {
	if t == nil {
		return nil
	}
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	n, _ := t.(*types.Named)
	return n
}

func isSugaredLogger(t types.Type) bool {
	n := named(t)
	if n == nil || n.Obj().Pkg() == nil {
		return false
	}
	return n.Obj().Name() == "SugaredLogger" && n.Obj().Pkg().Path() == zapPath
}

func isRecord(t types.Type) bool {
	n := named(t)
	return n != nil && recordTypes[n.Obj().Name()]
}

func isString(t types.Type) bool {
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsString != 0
}

func isSecretName(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range secretWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
