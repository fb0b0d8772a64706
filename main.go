package main

import (
	"pressfeed/cmd"
)

func main() {
	cmd.Execute()
}
