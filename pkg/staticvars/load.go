package staticvars

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/example/flakeorder/detector/domain"
	"github.com/example/flakeorder/detector/selector"
)

// Facts are the merged scan results of a set of packages.
type Facts struct {
	// Tests is the test universe, grouped by package in load order.
	Tests []string

	// Deps maps each test to its own package and the packages declaring
	// the variables it reaches.
	Deps domain.Relation

	Accesses []domain.FieldAccess
	Classes  []domain.ClassInfo
}

// Load scans the packages matching patterns, test files included.
func Load(ctx context.Context, dir string, patterns ...string) (*Facts, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Tests: true,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })
	results := make([]*Result, 0, len(pkgs))
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s: %v", pkg.ID, pkg.Errors[0])
		}
		// Synthesized test main packages.
		if strings.HasSuffix(pkg.PkgPath, ".test") || pkg.Types == nil {
			continue
		}
		results = append(results, scan(pkg.Syntax, pkg.Types, pkg.TypesInfo))
	}
	return Merge(results...), nil
}

// Merge combines per-package results. A package loaded both alone and as a
// test variant contributes each test, access and variable once. A variable
// is final only if no package mutates it.
func Merge(results ...*Result) *Facts {
	facts := &Facts{Deps: domain.NewRelation()}
	seenTest := make(map[string]bool)
	seenAccess := make(map[domain.FieldAccess]bool)
	mutated := make(map[string]bool)
	vars := make(map[string]Var)
	var varOrder []string

	for _, res := range results {
		for id := range res.Mutated {
			mutated[id] = true
		}
		for _, v := range res.Vars {
			if _, ok := vars[v.ID]; !ok {
				vars[v.ID] = v
				varOrder = append(varOrder, v.ID)
			}
		}
		for _, test := range res.Tests {
			if !seenTest[test] {
				seenTest[test] = true
				facts.Tests = append(facts.Tests, test)
				facts.Deps.Add(test, res.Path)
			}
		}
		for _, a := range res.Accesses {
			if seenAccess[a] {
				continue
			}
			seenAccess[a] = true
			facts.Accesses = append(facts.Accesses, a)
			if class, _, ok := domain.SplitField(a.Field); ok {
				facts.Deps.Add(a.Test, class)
			}
		}
	}

	byClass := make(map[string]*domain.ClassInfo)
	var classOrder []string
	for _, id := range varOrder {
		v := vars[id]
		class, _, ok := domain.SplitField(id)
		if !ok {
			continue
		}
		info, ok := byClass[class]
		if !ok {
			info = &domain.ClassInfo{Name: class}
			byClass[class] = info
			classOrder = append(classOrder, class)
		}
		info.Fields = append(info.Fields, domain.FieldInfo{
			Name:      v.Name,
			Type:      v.Type,
			Static:    true,
			Final:     !mutated[id],
			Primitive: v.Primitive,
		})
	}
	sort.Strings(classOrder)
	for _, class := range classOrder {
		facts.Classes = append(facts.Classes, *byClass[class])
	}
	return facts
}

// Oracle returns a mutability oracle over the scanned packages.
func (f *Facts) Oracle() selector.MutabilityOracle {
	return selector.NewTableOracle(f.Classes)
}

// GoImmutableTypes returns Go types whose never-reassigned package
// variables cannot carry state between tests. Basic types are covered by
// the primitive rule.
func GoImmutableTypes() []string {
	return []string{
		"error",
		"time.Duration",
		"time.Time",
		"*time.Location",
		"*regexp.Regexp",
		"reflect.Type",
		"*math/big.Int",
		"*math/big.Float",
		"*math/big.Rat",
		"net.IP",
		"*net/url.URL",
	}
}
