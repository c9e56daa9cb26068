package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harrison/goodread/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// The report already shows which documents failed
		if !errors.Is(err, cmd.ErrInvalidDocuments) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
