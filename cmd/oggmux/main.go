// Package main provides the oggmux CLI tool.
//
// Usage:
//
//	oggmux [flags] <command> [args]
//
// Commands:
//
//	probe    - Report on the logical streams of Ogg files
//	demux    - Split an Ogg file into per-stream packet dumps
//	mux      - Interleave packet dumps into one Ogg file
//	repair   - Rewrite an Ogg file without garbage and broken pages
//	catalog  - Browse recorded probe reports
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.oggmux/oggmux/
//	Use 'oggmux config' commands to manage contexts.
package main

import (
	"os"

	"github.com/haivivi/oggmux/cmd/oggmux/commands"
	"github.com/haivivi/oggmux/pkg/cli"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
