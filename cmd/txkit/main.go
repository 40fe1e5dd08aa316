package main

import "github.com/shamank/evm-txkit-go/cmd/txkit/cmd"

func main() {
	cmd.Execute()
}
