// Package main is the single-binary entrypoint for lvlup.
package main

import "github.com/lvlup-app/lvlup/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
