package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/smith3v/vocab-srs/pkg/db"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if closeErr := db.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
