// Command trade-review scores historical trades against the market context
// of the period they were taken in.
package main

import (
	"fmt"
	"os"

	"trade-review/internal/cli"
	"trade-review/internal/logging"
)

func main() {
	cmd := cli.NewRootCmd(nil, logging.NewLogger())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
