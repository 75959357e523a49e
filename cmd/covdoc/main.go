package main

import (
	"fmt"
	"os"

	"github.com/zjy-dev/covdoc/cmd/covdoc/app"
	"github.com/zjy-dev/covdoc/internal/logger"
)

func main() {
	err := app.NewCovdocCommand().Execute()
	logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
