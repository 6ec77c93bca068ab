// Command solidprobe evaluates solid-geometry probe scripts, answers
// one-off containment and line crossing queries, and meshes placed
// solids for inspection.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}
