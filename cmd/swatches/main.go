// Swatches - inspect and rewrite the colours of a web page
//
// Swatches scans a page for the background colours of its elements, ranks
// them into a palette, exports it as Sass or Less variables and replaces a
// colour across every element that uses it.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/swatches/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
