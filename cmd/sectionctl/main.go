package main

import (
	"fmt"
	"os"

	"newsdesk-sections/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := cli.NewRootCommand(os.Stdin).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
