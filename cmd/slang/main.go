// Command slang inspects, assembles and links compiled modules.
package main

import (
	"fmt"
	"os"
)

func main() {
	gs := newGlobalState()
	if err := newRootCommand(gs).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
