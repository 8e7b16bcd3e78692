// Package staticvars finds the package-level variables Go tests share.
//
// For every TestXxx function it computes the package variables the test
// reaches, directly or through calls to functions of the same package, and
// whether each variable is ever mutated after initialization. The output
// feeds the order-dependence detector as dependency, access and field
// facts: packages play the role of classes and variables that of static
// fields.
//
// Usage as a vet-style check:
//
//	go vet -vettool=$(which staticvars) ./...
//
// Or through the flakeorder CLI:
//
//	flakeorder scan ./...
package staticvars

import (
	"go/ast"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports mutable package variables shared by two or more tests.
// Its result is a *Result.
var Analyzer = &analysis.Analyzer{
	Name:       "staticvars",
	Doc:        "reports mutable package-level variables shared between tests",
	Requires:   []*analysis.Analyzer{inspect.Analyzer},
	Run:        run,
	ResultType: reflect.TypeOf((*Result)(nil)),
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	// Skip the scan for packages without tests.
	hasTests := false
	inspect.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fd := n.(*ast.FuncDecl)
		if fd.Recv == nil && strings.HasPrefix(fd.Name.Name, "Test") {
			hasTests = true
		}
	})
	if !hasTests {
		return &Result{Path: pass.Pkg.Path(), Mutated: map[string]bool{}}, nil
	}

	res := scan(pass.Files, pass.Pkg, pass.TypesInfo)
	report(pass, res)
	return res, nil
}

func report(pass *analysis.Pass, res *Result) {
	sharers := make(map[string][]string)
	for _, a := range res.Accesses {
		sharers[a.Field] = append(sharers[a.Field], strings.TrimPrefix(a.Test, res.Path+"."))
	}
	for _, v := range res.Vars {
		tests := sharers[v.ID]
		if !res.Mutated[v.ID] || len(tests) < 2 {
			continue
		}
		sort.Strings(tests)
		pass.Reportf(v.Pos, "mutable package variable %s is shared by %d tests: %s",
			v.Name, len(tests), strings.Join(tests, ", "))
	}
}
