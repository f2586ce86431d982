package main

import (
	"os"

	"github.com/granular-oss/geostream/cmd/unpack-gjz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
