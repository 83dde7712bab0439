// Package main is the entry point for the hubnet CLI.
//
// hubnet discovers the deployment units of a hub-spoke network, wires them
// together and synthesizes the route tables that force inter-spoke traffic
// through the hub's network virtual appliance.
//
// Commands: units, plan, apply, destroy, routes, lookup, keygen, version.
// Run "hubnet --help" for details.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/hubnet/cmd/hubnet/commands"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Interrupting apply or destroy cancels the in-flight hcloud calls.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
