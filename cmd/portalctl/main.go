// Package main is the entry point for the portalctl admin binary.
package main

import (
	"os"

	cli "client-portal/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
