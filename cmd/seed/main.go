package main

import (
	"log"

	tool "github.com/tamojuntogames/accounts-api/internal/tools/seed"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
