package main

import "github.com/fakeyudi/ctxchat/cmd"

func main() {
	cmd.Execute()
}
