// Command staticvars reports mutable package variables shared by tests.
//
// Usage:
//
//	staticvars ./...
//
// A variable is reported when it is written outside init and at least two
// tests in the package reach it. Such tests can pass or fail depending on
// the order they run in. Use flakeorder scan to turn the same facts into
// schedules.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/example/flakeorder/pkg/staticvars"
)

func main() {
	singlechecker.Main(staticvars.Analyzer)
}
