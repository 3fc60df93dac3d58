package main

import "github.com/hoppxi/ddclight/internal/cmd"

func main() {
	cmd.Execute()
}
