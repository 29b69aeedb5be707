package main

import "emili/cmd"

func main() {
	cmd.Execute()
}
