package main

import "github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cli"

func main() {
	cli.Execute()
}
