package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andy/rapport/internal/cli"
	ierr "github.com/andy/rapport/internal/errors"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", ierr.DisplayMessage(err))
		os.Exit(1)
	}
}
