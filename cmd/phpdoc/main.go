package main

import "github.com/dshills/phpdoc-mcp/internal/cli"

func main() {
	cli.Execute()
}
