package main

import "github.com/stefanpenner/pomo/pkg/cli"

func main() {
	cli.Execute()
}
