// Package main wires the rpzindex CLI entry point. version and
// buildTime in the cmd package are set by the release build via
// -ldflags "-X github.com/0xERR0R/rpzindex/cmd.version=... -X .../cmd.buildTime=...".
package main

import (
	"github.com/0xERR0R/rpzindex/cmd"
)

func main() {
	cmd.Execute()
}
