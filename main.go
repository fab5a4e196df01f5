package main

import (
	log "github.com/sirupsen/logrus"

	"frazil/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
