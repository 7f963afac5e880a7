package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/socialgate/internal/app"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSeedCmd(load loadFunc) *cobra.Command {
	var (
		provider   string
		externalID string
		email      string
		name       string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a sample user into the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := providers.Parse(provider)
			if err != nil {
				return err
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if u, err := st.FindUser(cmd.Context(), p, externalID); err == nil {
				fmt.Fprintf(out, "user already seeded: id=%s\n", u.ID)
				return nil
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			now := time.Now().UTC()
			u, err := st.CreateUser(cmd.Context(), store.CreateUserInput{
				ID:              uuid.NewString(),
				Provider:        p,
				ProviderID:      externalID,
				Email:           email,
				Name:            name,
				EmailVerifiedAt: &now,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "seeded user id=%s provider=%s external_id=%s\n", u.ID, u.Provider, u.ProviderID)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "kakao", "Provider of the sample identity")
	cmd.Flags().StringVar(&externalID, "external-id", "seed-0001", "Provider-side user id")
	cmd.Flags().StringVar(&email, "email", "seed@example.com", "Email of the sample user")
	cmd.Flags().StringVar(&name, "name", "Seed User", "Display name of the sample user")
	return cmd
}
