package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
)

func main() {
	if err := run(os.Args, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, fetch.ErrMalformedInput) {
			fmt.Fprintln(os.Stderr, "FATAL:", err)
		} else {
			fmt.Fprintln(os.Stderr, "omcc-statusline error:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout *os.File) error {
	cmd := newRootCommand(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	return cmd.Execute()
}
