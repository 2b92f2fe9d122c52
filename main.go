package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/pidev-project/pidev/cmd"
)

func main() {
	// Optional .env next to the binary; useful for PIDEV_* overrides in
	// development.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
