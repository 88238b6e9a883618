package main

import "github.com/vnoc/incident-tracker/internal/cli"

func main() {
	cli.Execute()
}
