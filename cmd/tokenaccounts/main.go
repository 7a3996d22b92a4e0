package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aman-zulfiqar/solana-token-accounts/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		// commands report their own failures; flag and usage errors land here
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
