package main

import "github.com/KaramelBytes/pkplot-cli/cmd"

func main() {
	cmd.Execute()
}
