package main

import "edusync/cmd"

func main() {
	cmd.Execute()
}
