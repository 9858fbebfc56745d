//go:build !tinygo

package main

// This file provides a stub entry point for the regular Go toolchain
// (staticcheck, go vet). The actual firmware entry is in main.go (TinyGo
// only); see cmd/ferrysend for the host-side companion tool.

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "click2flash is firmware; build it with tinygo for the target board")
	os.Exit(1)
}
