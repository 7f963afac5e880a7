package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/socialgate/internal/jwt"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Session token utilities",
	}
	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decode a session token without verifying its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := strings.TrimSpace(strings.TrimPrefix(args[0], "Bearer "))
			c, err := jwt.DecodeWithoutVerify(raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "signature: NOT verified")
			fmt.Fprintf(out, "kind:      %s\n", c.Kind)
			fmt.Fprintf(out, "subject:   %s\n", c.Subject)
			fmt.Fprintf(out, "provider:  %s\n", c.Provider)
			if c.Issuer != "" {
				fmt.Fprintf(out, "issuer:    %s\n", c.Issuer)
			}
			if c.ExpiresAt != nil {
				fmt.Fprintf(out, "expires:   %s\n", c.ExpiresAt.UTC().Format(time.RFC3339))
			}
			if jwt.IsExpired(raw) {
				fmt.Fprintln(out, "remaining: expired")
			} else {
				fmt.Fprintf(out, "remaining: %s\n", jwt.TimeRemaining(raw).Round(time.Second))
			}
			return nil
		},
	}
	cmd.AddCommand(inspect)
	return cmd
}
