package main

import (
	"fmt"
	"os"

	"dporsched/internal/cliapp"
)

// main canonicalizes all CLI inputs through cobra's own flag/argument
// parsing before any engine logic runs, the same boundary the teacher
// draws with its own cli.ParseInvocation, adapted to cobra's
// Command.Execute idiom rather than a hand-rolled invocation type.
func main() {
	root := cliapp.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
