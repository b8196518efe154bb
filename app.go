package main

import "github.com/masmgr/diffseries/cmd"

func main() {
	cmd.Run()
}
