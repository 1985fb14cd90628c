package main

import (
	"log"
	"os"

	"github.com/CheatB/zachot-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.SetFlags(0)
		log.Println(err)
		os.Exit(1)
	}
}
