// Package main is the entry point for the h2h CLI, which builds and inspects
// a static head-to-head match archive.
package main

import "github.com/pable/go-h2h/cmd"

func main() {
	cmd.Execute()
}
