// pagescope CLI - scoped Confluence Cloud proxy for coding agents
package main

import (
	"github.com/pagescope/pagescope/pkg/cli"
)

func main() {
	cli.Execute()
}
