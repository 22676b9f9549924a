package main

import (
	"github.com/ZanzyTHEbar/aq10-triage/internal/cli"
)

func main() {
	cli.Execute()
}
