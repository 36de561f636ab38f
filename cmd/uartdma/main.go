package main

import "github.com/allbin/go-uartdma/cmd"

func main() {
	cmd.Execute()
}
