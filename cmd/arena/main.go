package main

import (
	"github.com/nmurphy101/arena/cmd/arena/commands"
)

func main() {
	commands.Execute()
}
