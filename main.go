package main

import (
	"os"

	"github.com/zjrosen/mob/cmd"
)

var version = "dev"

func main() {
	os.Exit(cmd.Execute(version))
}
