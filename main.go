package main

import "github.com/josephlewis42/shellfyre/cmd"

func main() {
	cmd.Execute()
}
