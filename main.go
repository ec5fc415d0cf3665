// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"fmt"
	"loopc/repl"
	"os"
	"os/user"

	"github.com/tliron/commonlog"
)

func main() {
	commonlog.Configure(1, nil)

	currentUser, err := user.Current()
	if err != nil {
		fmt.Printf("Error getting current user: %v\n", err)
		return
	}

	fmt.Printf("Welcome to the loopc console, %s! Type \"help\" to get started.\n", currentUser.Username)
	repl.Start(os.Stdin)
}
