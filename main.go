package main

import "shyness-client/cmd"

func main() {
	cmd.Run()
}
