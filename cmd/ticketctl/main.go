package main

import (
	"os"

	"github.com/spec-kit/ticketing-api/cmd/ticketctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
