// Package main is the entry point of the GameManager binary.
package main

import "os"

func main() {
	os.Exit(run())
}
