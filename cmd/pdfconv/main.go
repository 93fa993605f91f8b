package main

import (
	"fmt"
	"os"

	"pdf-toolkit/cmd/pdfconv/commands"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := commands.Execute(); err != nil {
		code := commands.ExitCode(err)
		if code != 130 {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return code
	}
	return 0
}
