package main

import (
	"log"
	"os"

	"github.com/dshills/stdland/internal/cli"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	log.SetOutput(os.Stderr)

	if err := cli.Execute(version, buildTime); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
