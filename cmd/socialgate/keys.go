package main

import (
	"fmt"

	"github.com/dropDatabas3/socialgate/internal/security/secretbox"
	tokens "github.com/dropDatabas3/socialgate/internal/security/token"
	"github.com/spf13/cobra"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Key material helpers",
	}
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Print a fresh JWT_SECRET and TOKEN_ENCRYPTION_KEY as .env lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := tokens.GenerateOpaqueToken(48)
			if err != nil {
				return err
			}
			encKey, err := secretbox.GenerateKey()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "JWT_SECRET=%s\n", secret)
			fmt.Fprintf(out, "TOKEN_ENCRYPTION_KEY=%s\n", encKey)
			return nil
		},
	}
	cmd.AddCommand(generate)
	return cmd
}
