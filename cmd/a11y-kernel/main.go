package main

import "github.com/openclaw/a11y-kernel/pkg/cli"

func main() {
	cli.Execute()
}
