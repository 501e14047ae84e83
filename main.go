package main

import "github.com/gophersh/gosh/cmd"

func main() {
	cmd.Execute()
}
