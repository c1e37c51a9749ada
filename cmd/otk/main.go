package main

import "github.com/OpenTraceLab/OpenTraceKiCad/cmd/otk/cmd"

func main() {
	cmd.Execute()
}
