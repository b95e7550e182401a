package main

import "soundbox/cmd"

func main() {
	cmd.Execute()
}
