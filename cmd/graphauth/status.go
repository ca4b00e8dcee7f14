package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/loykin/graphauth/internal/graph"
	"github.com/loykin/graphauth/internal/provider"
	"github.com/spf13/cobra"
)

// statusReport is what `status` prints. The token itself is never included.
type statusReport struct {
	State      string           `json:"state" yaml:"state"`
	IsLoggedIn bool             `json:"is_logged_in" yaml:"is_logged_in"`
	BaseURL    string           `json:"base_url" yaml:"base_url"`
	Authority  string           `json:"authority,omitempty" yaml:"authority,omitempty"`
	Scopes     []string         `json:"scopes" yaml:"scopes"`
	Token      *graph.TokenInfo `json:"token,omitempty" yaml:"token,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func buildReport(p *provider.Adapter, initErr error, tok string) statusReport {
	r := statusReport{
		State:      p.State().String(),
		IsLoggedIn: p.IsLoggedIn(),
		BaseURL:    p.BaseURL(),
		Authority:  p.Authority(),
		Scopes:     p.Scopes(),
	}
	if r.Scopes == nil {
		r.Scopes = []string{}
	}
	if initErr != nil {
		r.Error = initErr.Error()
	}
	if tok != "" {
		if info, err := graph.Inspect(tok); err == nil {
			r.Token = info
		}
	}
	return r
}

func (r statusReport) writeText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "state:        %s\n", r.State)
	fmt.Fprintf(&b, "logged in:    %t\n", r.IsLoggedIn)
	fmt.Fprintf(&b, "base url:     %s\n", r.BaseURL)
	if r.Authority != "" {
		fmt.Fprintf(&b, "authority:    %s\n", r.Authority)
	}
	fmt.Fprintf(&b, "scopes:       %s\n", strings.Join(r.Scopes, " "))
	if r.Token != nil {
		if r.Token.Subject != "" {
			fmt.Fprintf(&b, "subject:      %s\n", r.Token.Subject)
		}
		if len(r.Token.Audience) > 0 {
			fmt.Fprintf(&b, "audience:     %s\n", strings.Join(r.Token.Audience, " "))
		}
		if exp := r.Token.ExpiresAt; exp != nil {
			fmt.Fprintf(&b, "expires:      %s (in %s)\n", exp.Format(time.RFC3339), time.Until(*exp).Round(time.Second))
		}
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "error:        %s\n", r.Error)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the provider state, base URL, scopes and token claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("output")
		p, initErr := startProvider(cmd.Context(), c)
		var tok string
		if initErr == nil && p.IsLoggedIn() {
			tok, _ = p.AccessToken(cmd.Context())
		}
		r := buildReport(p, initErr, tok)
		return writeOutput(cmd.OutOrStdout(), format, r, r.writeText)
	},
}
