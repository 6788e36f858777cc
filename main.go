// ./main.go
package main

import (
	"github.com/voxweb/voxweb/cmd"
)

// main is the entry point for the voxweb CLI.
func main() {
	// Execute handles command-line parsing, configuration, and execution.
	cmd.Execute()
}
