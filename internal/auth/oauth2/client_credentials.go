package oauth2

import (
	"context"
	"errors"
	"strings"

	acommon "github.com/loykin/graphauth/internal/auth/common"
	golangoauth2 "golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentialsConfig holds configuration for the Client Credentials grant.
// When Scopes is empty the scope "<resource>/.default" is requested.
type ClientCredentialsConfig struct {
	ClientID  string   `mapstructure:"client_id"`
	ClientSec string   `mapstructure:"client_secret"`
	TokenURL  string   `mapstructure:"token_url"`
	Scopes    []string `mapstructure:"scopes"`
}

// ToMap returns a spec compatible with the oauth2 issuer factory.
func (c ClientCredentialsConfig) ToMap() map[string]interface{} {
	sub := map[string]interface{}{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSec,
		"token_url":     c.TokenURL,
	}
	if len(c.Scopes) > 0 {
		sub["scopes"] = c.Scopes
	}
	return map[string]interface{}{
		"grant_type":   "client_credentials",
		"grant_config": sub,
	}
}

func (c ClientCredentialsConfig) validate() error {
	if strings.TrimSpace(c.TokenURL) == "" {
		return errors.New("oauth2: token_url is required for client_credentials grant")
	}
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.ClientSec) == "" {
		return errors.New("oauth2: client_id and client_secret are required for client_credentials grant")
	}
	return nil
}

type clientCredentialsIssuer struct {
	c     ClientCredentialsConfig
	cache sourceCache
}

func (m *clientCredentialsIssuer) GetToken(ctx context.Context, resource string) (string, error) {
	ts, err := m.cache.get(resource, func() (golangoauth2.TokenSource, error) {
		cc := &clientcredentials.Config{
			ClientID:     strings.TrimSpace(m.c.ClientID),
			ClientSecret: strings.TrimSpace(m.c.ClientSec),
			TokenURL:     strings.TrimSpace(m.c.TokenURL),
			Scopes:       scopesFor(m.c.Scopes, resource, acommon.ResourceScope),
			AuthStyle:    golangoauth2.AuthStyleInParams,
		}
		return cc.TokenSource(acommon.TokenContext(ctx)), nil
	})
	if err != nil {
		return "", err
	}
	tok, err := ts.Token()
	if err != nil {
		return "", err
	}
	return accessToken(tok)
}
