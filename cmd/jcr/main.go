package main

import "github.com/aweris/jcr/cmd/jcr/cmd"

func main() {
	cmd.Execute()
}
