// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"loopc/grammar"
	"loopc/internal/examples"
	"loopc/internal/loopcarry"
	"loopc/internal/report"
)

const PROMPT = ">> "

var log = commonlog.GetLogger("loopc.repl")

// Start runs the interactive loop-carry console over in, reading one
// command per line until in is exhausted.
func Start(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Print(PROMPT)
		scanned := scanner.Scan()
		if !scanned {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		dispatch(line)
	}
}

func dispatch(line string) {
	cmd, err := grammar.ParseCommand(line)
	if err != nil {
		// grammar.ParseCommand already printed a caret-style message.
		return
	}
	log.Debugf("dispatching command %q", cmd.Name)

	switch cmd.Name {
	case "list":
		runList()
	case "run":
		runScenario(cmd)
	case "help":
		runHelp()
	default:
		color.Red("unknown command %q (try \"help\")", cmd.Name)
	}
}

func runHelp() {
	fmt.Println("commands:")
	fmt.Println("  list                    show every available scenario")
	fmt.Println("  run <scenario> [m=N]    run the loop-carry pass on a scenario, optionally overriding its carried-value budget")
	fmt.Println("  help                    show this message")
}

func runList() {
	for _, sc := range examples.All() {
		fmt.Printf("  %-24s %s\n", sc.Name, sc.Describe)
	}
}

func runScenario(cmd *grammar.Command) {
	bare := cmd.Bare()
	if len(bare) == 0 {
		color.Red("run needs a scenario name; try \"list\"")
		return
	}
	name := bare[0]

	var found *examples.Scenario
	for _, sc := range examples.All() {
		if sc.Name == name {
			found = &sc
			break
		}
	}
	if found == nil {
		color.Red("no such scenario %q; try \"list\"", name)
		return
	}

	budget := found.MaxCarriedValues
	if override, ok := cmd.Get("m"); ok {
		budget = override
	}

	log.Debugf("running %q with max carried values %d", found.Name, budget)
	after := loopcarry.LoopCarry(found.Stmt, budget)

	fmt.Print(report.Render(report.Result{
		Name:    found.Name,
		Before:  found.Stmt,
		After:   after,
		Scratch: report.CollectScratch(after),
	}))
}
