// Package grammar SPDX-License-Identifier: Apache-2.0
package grammar

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var commandParser = participle.MustBuild[Command](
	participle.Lexer(CommandLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseCommand parses one REPL input line into a Command.
func ParseCommand(line string) (*Command, error) {
	cmd, err := commandParser.ParseString("<repl>", line)
	if err != nil {
		reportParseError(line, err)
		return nil, err
	}
	return cmd, nil
}

// Get returns the value of a "key=value" option, or (0, false) if absent.
func (c *Command) Get(key string) (int, bool) {
	for _, a := range c.Args {
		if a.Option != nil && a.Option.Key == key {
			return a.Option.Value, true
		}
	}
	return 0, false
}

// Bare returns the bare (non-option) words following the command name.
func (c *Command) Bare() []string {
	var out []string
	for _, a := range c.Args {
		if a.Bare != nil {
			out = append(out, *a.Bare)
		}
	}
	return out
}

// reportParseError prints a friendly caret-style parse error message.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	if pos.Column <= 0 {
		color.Red("syntax error: %s", err)
		return
	}

	caret := strings.Repeat(" ", pos.Column-1) + "^"
	color.Red("syntax error at column %d:", pos.Column)
	fmt.Println(src)
	color.HiRed(caret)
}
