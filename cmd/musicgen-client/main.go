// main package for the musicgen client CLI.
package main

import (
	"fmt"
	"os"

	"github.com/book-expert/musicgen-service/internal/cli"
)

func main() {
	err := cli.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
