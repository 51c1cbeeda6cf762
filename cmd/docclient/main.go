package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"docclient/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
