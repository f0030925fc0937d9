package main

import (
	"os"

	log "github.com/golang/glog"

	"github.com/arsenuw/lda2vec/cmd"
)

func main() {
	err := cmd.Execute()
	log.Flush()
	if err != nil {
		os.Exit(1)
	}
}
