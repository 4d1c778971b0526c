package main

import "github.com/iliyamo/ecocharge-reservation/internal/cli"

func main() {
	cli.Execute()
}
