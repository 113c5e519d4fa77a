package main

import (
	"log"

	"institute-service/internal/cli"
)

func main() {
	log.SetFlags(0)
	if err := cli.Execute(); err != nil {
		log.Fatalf("authzctl: %v", err)
	}
}
