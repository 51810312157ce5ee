package main

import "github.com/example/classpick/cmd"

func main() {
	cmd.Execute()
}
