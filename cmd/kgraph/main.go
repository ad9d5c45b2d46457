package main

import "github.com/viant/kgraph/cmd"

func main() {
	cmd.Execute()
}
