// Command filterplay creates, compiles and inspects image kernel projects.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
	}
	c := newCLI(os.Stdout, osFS())
	if err := newRootCommand(c).Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, color.RedString("Error:"), msg)
		}
		os.Exit(1)
	}
}
