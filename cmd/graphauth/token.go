package main

import (
	"fmt"

	"github.com/loykin/graphauth/internal/provider"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an access token for the resolved base URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := startProvider(cmd.Context(), c)
		if err != nil {
			return err
		}
		if p.State() != provider.StateSignedIn {
			return fmt.Errorf("not signed in (state %s)", p.State())
		}
		// The initial fetch settled the state; ask again so the printed token is current.
		tok, err := p.AccessToken(cmd.Context())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}
