// Package main provides the entry point for the findtext CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/findtext/cmd/findtext/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
