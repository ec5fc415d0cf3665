// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"loopc/internal/examples"
	"loopc/internal/loopcarry"
	"loopc/internal/report"
)

func main() {
	scenario := flag.String("scenario", "", "scenario name to run (omit to run every scenario)")
	maxCarried := flag.Int("m", 0, "override the scenario's max-carried-values budget (0 keeps the scenario's default)")
	verbosity := flag.Int("v", 0, "log verbosity passed to commonlog")
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	all := examples.All()
	if *scenario != "" {
		found := false
		for _, sc := range all {
			if sc.Name == *scenario {
				all = []examples.Scenario{sc}
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "loopcarryc: no such scenario %q\n", *scenario)
			os.Exit(1)
		}
	}

	for _, sc := range all {
		budget := sc.MaxCarriedValues
		if *maxCarried > 0 {
			budget = *maxCarried
		}
		after := loopcarry.LoopCarry(sc.Stmt, budget)
		fmt.Print(report.Render(report.Result{
			Name:    sc.Name,
			Before:  sc.Stmt,
			After:   after,
			Scratch: report.CollectScratch(after),
		}))
	}
}
