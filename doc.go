/*
Package sconcho is an editor library for knitting charts: a grid of cells into which
stitch symbols, each a small vector graphic spanning one or more cells, are stamped
in a background color, completed by a legend which maps the used symbols to their
descriptions.

The package keeps the chart model (grid, legend, palette and active symbol), turns
user gestures into grid edits, reads and writes .spf project files, renders the
chart and exports it as PNG, TIFF, BMP or JPEG image.

The package provides a command line interface for exporting projects and for
opening them in a preview window. To check the supported commands type:

	$ sconcho --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/sconcho"
	)

	func main() {
		lib, err := sconcho.LoadLibrary("symbols")
		if err != nil {
			fmt.Printf("Error loading the symbols: %s", err.Error())
			return
		}
		p := &sconcho.Processor{
			Library: lib,
			Config:  sconcho.DefaultConfig(),
		}

		if err := p.Process(in, out, sconcho.FormatPNG); err != nil {
			fmt.Printf("Error exporting the chart: %s", err.Error())
		}
	}
*/
package sconcho
