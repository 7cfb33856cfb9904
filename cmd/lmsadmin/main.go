package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/alexis/lmsadmin/cmd/lmsadmin/cli"
)

var version = "dev"

func main() {
	_ = godotenv.Load() // .env is optional

	cli.Version = version
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
