// Package main is the entry point for b24-dealsync.
package main

import (
	"os"

	"github.com/pkravchenko/b24-dealsync/cmd/b24-dealsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
