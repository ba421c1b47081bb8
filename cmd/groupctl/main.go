// Command groupctl is a terminal client for PilgrimLink: sign in, manage
// groups, post messages and watch a group's ledger by polling.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
