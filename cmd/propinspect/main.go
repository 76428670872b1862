// Command propinspect runs the inspection engines offline against JSON or
// YAML documents: scoring, update previews and deficiency dry runs.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
