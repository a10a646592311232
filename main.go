package main

import (
	"bpmshuffle/cmd"
)

func main() {
	cmd.Execute()
}
