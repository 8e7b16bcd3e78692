package staticvars

import (
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/example/flakeorder/detector/domain"
)

// Var describes a package-level variable.
type Var struct {
	// ID is "pkgpath.Name".
	ID   string
	Name string
	Type string

	// Primitive is true for variables of basic type.
	Primitive bool

	Pos token.Pos
}

// Result is what a scan of one package finds.
type Result struct {
	Path string

	// Tests are "pkgpath.TestName" identifiers in source order.
	Tests []string

	// Accesses pairs each test with every package variable it reaches.
	Accesses []domain.FieldAccess

	// Vars are the package-level variables this package declares.
	Vars []Var

	// Mutated holds the IDs of variables, from any package, that this
	// package assigns, increments, or takes the address of outside init.
	Mutated map[string]bool
}

type funcRefs struct {
	vars  map[*types.Var]bool
	calls map[*types.Func]bool
}

type scanner struct {
	pkg     *types.Package
	info    *types.Info
	refs    map[*types.Func]*funcRefs
	tests   []*types.Func
	mutated map[*types.Var]bool
}

func scan(files []*ast.File, pkg *types.Package, info *types.Info) *Result {
	s := &scanner{
		pkg:     pkg,
		info:    info,
		refs:    make(map[*types.Func]*funcRefs),
		mutated: make(map[*types.Var]bool),
	}
	for _, f := range files {
		for _, decl := range f.Decls {
			if fd, ok := decl.(*ast.FuncDecl); ok {
				s.collect(fd)
			}
		}
	}

	res := &Result{Path: pkg.Path(), Mutated: make(map[string]bool)}
	for v := range s.mutated {
		res.Mutated[varID(v)] = true
	}
	for _, test := range s.tests {
		id := pkg.Path() + "." + test.Name()
		res.Tests = append(res.Tests, id)
		for _, v := range s.reach(test) {
			res.Accesses = append(res.Accesses, domain.FieldAccess{Test: id, Field: v})
		}
	}

	scope := pkg.Scope()
	for _, name := range scope.Names() {
		v, ok := scope.Lookup(name).(*types.Var)
		if !ok {
			continue
		}
		_, basic := v.Type().Underlying().(*types.Basic)
		res.Vars = append(res.Vars, Var{
			ID:        varID(v),
			Name:      v.Name(),
			Type:      typeName(v.Type()),
			Primitive: basic,
			Pos:       v.Pos(),
		})
	}
	return res
}

func (s *scanner) collect(fd *ast.FuncDecl) {
	fn, ok := s.info.Defs[fd.Name].(*types.Func)
	if !ok {
		return
	}
	refs := &funcRefs{vars: make(map[*types.Var]bool), calls: make(map[*types.Func]bool)}
	s.refs[fn] = refs
	if isTest(fd, fn) {
		s.tests = append(s.tests, fn)
	}
	if fd.Body == nil {
		return
	}

	ast.Inspect(fd.Body, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		switch obj := s.info.Uses[id].(type) {
		case *types.Var:
			if s.packageVar(obj) {
				refs.vars[obj] = true
			}
		case *types.Func:
			if obj.Pkg() == s.pkg {
				refs.calls[obj.Origin()] = true
			}
		}
		return true
	})

	// Assignments in init are initialization.
	if fd.Recv == nil && fd.Name.Name == "init" {
		return
	}
	s.markMutations(fd.Body)
}

func (s *scanner) markMutations(body *ast.BlockStmt) {
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			if n.Tok != token.DEFINE {
				for _, lhs := range n.Lhs {
					s.markRoot(lhs)
				}
			}
		case *ast.IncDecStmt:
			s.markRoot(n.X)
		case *ast.UnaryExpr:
			if n.Op == token.AND {
				s.markRoot(n.X)
			}
		case *ast.RangeStmt:
			if n.Tok == token.ASSIGN {
				if n.Key != nil {
					s.markRoot(n.Key)
				}
				if n.Value != nil {
					s.markRoot(n.Value)
				}
			}
		case *ast.CallExpr:
			s.markPointerReceiver(n)
		}
		return true
	})
}

// markPointerReceiver marks v in v.M() when M has a pointer receiver and v
// is addressed implicitly.
func (s *scanner) markPointerReceiver(call *ast.CallExpr) {
	sel, ok := ast.Unparen(call.Fun).(*ast.SelectorExpr)
	if !ok {
		return
	}
	selection, ok := s.info.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal {
		return
	}
	sig, ok := selection.Obj().Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return
	}
	if _, ptrRecv := sig.Recv().Type().(*types.Pointer); !ptrRecv {
		return
	}
	if _, ptrX := selection.Recv().(*types.Pointer); ptrX {
		return
	}
	s.markRoot(sel.X)
}

func (s *scanner) markRoot(expr ast.Expr) {
	for {
		switch e := expr.(type) {
		case *ast.ParenExpr:
			expr = e.X
		case *ast.StarExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.SelectorExpr:
			// pkg.Var
			if v, ok := s.info.Uses[e.Sel].(*types.Var); ok && s.packageVar(v) {
				s.mutated[v] = true
				return
			}
			expr = e.X
		case *ast.Ident:
			if v, ok := s.info.Uses[e].(*types.Var); ok && s.packageVar(v) {
				s.mutated[v] = true
			}
			return
		default:
			return
		}
	}
}

// reach returns the IDs of the package variables fn reaches through
// same-package calls, sorted.
func (s *scanner) reach(fn *types.Func) []string {
	seen := map[*types.Func]bool{fn: true}
	queue := []*types.Func{fn}
	vars := make(map[string]bool)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		refs, ok := s.refs[cur]
		if !ok {
			continue
		}
		for v := range refs.vars {
			vars[varID(v)] = true
		}
		for callee := range refs.calls {
			if !seen[callee] {
				seen[callee] = true
				queue = append(queue, callee)
			}
		}
	}
	out := make([]string, 0, len(vars))
	for v := range vars {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// packageVar reports whether v is a package-level variable worth tracking:
// declared in this package or in a non-standard-library one.
func (s *scanner) packageVar(v *types.Var) bool {
	if v.IsField() || v.Pkg() == nil {
		return false
	}
	if v.Pkg().Scope().Lookup(v.Name()) != v {
		return false
	}
	return v.Pkg() == s.pkg || !isStdlib(v.Pkg().Path())
}

func isTest(fd *ast.FuncDecl, fn *types.Func) bool {
	if fd.Recv != nil || !strings.HasPrefix(fd.Name.Name, "Test") {
		return false
	}
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Params().Len() != 1 || sig.Results().Len() != 0 {
		return false
	}
	return types.TypeString(sig.Params().At(0).Type(), nil) == "*testing.T"
}

// isStdlib treats import paths without a dot in the first element as
// standard library.
func isStdlib(path string) bool {
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".")
}

// typeName is the qualified type string with commas replaced, so it stays
// one column of the comma-separated fields file.
func typeName(t types.Type) string {
	return strings.NewReplacer(", ", ";", ",", ";").Replace(types.TypeString(t, nil))
}

func varID(v *types.Var) string {
	return v.Pkg().Path() + "." + v.Name()
}
