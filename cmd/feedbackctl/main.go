// Command feedbackctl exports call center feedback from the terminal.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// errReported marks failures whose message the notifier already printed.
var errReported = errors.New("reported")

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
