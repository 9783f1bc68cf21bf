package main

import "github.com/schemactl/schemactl/cmd"

func main() {
	cmd.Execute()
}
