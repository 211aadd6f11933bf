package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal; variables may come from the environment.
	_ = godotenv.Load()

	initHelp(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		outputError(os.Stderr, err)
		os.Exit(1)
	}
}
