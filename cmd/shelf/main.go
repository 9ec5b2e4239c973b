package main

import (
	"github.com/shelfpkg/shelf/pkg/cmd"
)

func main() {
	cmd.Execute()
}
