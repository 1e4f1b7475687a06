package main

import "github.com/Jrmromao/costlens/cmd"

func main() {
	cmd.Execute()
}
