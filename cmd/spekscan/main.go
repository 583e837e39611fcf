package main

import (
	"github.com/DNYoussef/Spek-template-sub011/internal/cmd"
)

func main() {
	cmd.Execute()
}
