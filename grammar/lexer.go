// Package grammar SPDX-License-Identifier: Apache-2.0
package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// CommandLexer tokenizes a single REPL command line: a command name
// followed by optional key=value options, e.g.
// "run three-tap-stencil m=3". Identifiers may contain '-' so that
// scenario names lex as a single word.
var CommandLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_-]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Equals", `=`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
