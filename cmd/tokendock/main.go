package main

import (
	"fmt"
	"os"

	"github.com/MrSnakeDoc/tokendock/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ tokendock: %v\n", err)
		os.Exit(1)
	}
}
