package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"buddy/cmd/buddy/cmd"
)

func main() {
	// A .env file in the working directory is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	cmd.Execute()
}
