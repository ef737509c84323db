package main

import (
	"github.com/velarno/copper/pkg/cli"
)

func main() {
	cli.Execute()
}
