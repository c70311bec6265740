package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// requireAtLeastArgs rejects fewer than min positional args. The message
// names what is missing; the usage line is appended so the caller sees the
// argument order.
func requireAtLeastArgs(min int, message string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < min {
			return argsError(cmd, message, len(args))
		}
		return nil
	}
}

func requireExactlyArgs(count int, message string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != count {
			return argsError(cmd, message, len(args))
		}
		return nil
	}
}

func argsError(cmd *cobra.Command, message string, got int) error {
	return fmt.Errorf("%s (got %d argument%s)\nusage: %s", message, got, plural(got), cmd.UseLine())
}
