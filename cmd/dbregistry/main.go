// Package main implements the dbregistry service: it provisions the
// connections listed in a YAML file and serves their health over gRPC.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dbregistry: %v\n", err)
		os.Exit(1)
	}
}
