package main

import (
	"github.com/turtacn/pnet/cmd/cli"
)

// main is the entry point for the pnet-cert command-line tool.
// main 是 pnet-cert 命令行工具的入口点。
func main() {
	cli.Execute()
}
