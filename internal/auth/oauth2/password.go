package oauth2

import (
	"context"
	"errors"
	"strings"

	acommon "github.com/loykin/graphauth/internal/auth/common"
	golangoauth2 "golang.org/x/oauth2"
)

// PasswordConfig holds configuration for the Resource Owner Password Credentials grant.
type PasswordConfig struct {
	ClientID  string   `mapstructure:"client_id"`
	ClientSec string   `mapstructure:"client_secret"`
	AuthURL   string   `mapstructure:"auth_url"`
	TokenURL  string   `mapstructure:"token_url"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Scopes    []string `mapstructure:"scopes"`
}

// ToMap returns a spec compatible with the oauth2 issuer factory (password grant).
func (c PasswordConfig) ToMap() map[string]interface{} {
	sub := map[string]interface{}{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSec,
		"auth_url":      c.AuthURL,
		"token_url":     c.TokenURL,
		"username":      c.Username,
		"password":      c.Password,
	}
	if len(c.Scopes) > 0 {
		sub["scopes"] = c.Scopes
	}
	return map[string]interface{}{
		"grant_type":   "password",
		"grant_config": sub,
	}
}

func (c PasswordConfig) validate() error {
	if strings.TrimSpace(c.TokenURL) == "" {
		return errors.New("oauth2: token_url is required for password grant")
	}
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == "" {
		return errors.New("oauth2: client_id, username and password are required for password grant")
	}
	return nil
}

type passwordIssuer struct {
	c     PasswordConfig
	cache sourceCache
}

func (m *passwordIssuer) GetToken(ctx context.Context, resource string) (string, error) {
	ts, err := m.cache.get(resource, func() (golangoauth2.TokenSource, error) {
		tctx := acommon.TokenContext(ctx)
		ocfg := &golangoauth2.Config{
			ClientID:     strings.TrimSpace(m.c.ClientID),
			ClientSecret: strings.TrimSpace(m.c.ClientSec),
			Endpoint: golangoauth2.Endpoint{
				AuthURL:   strings.TrimSpace(m.c.AuthURL),
				TokenURL:  strings.TrimSpace(m.c.TokenURL),
				AuthStyle: golangoauth2.AuthStyleInParams,
			},
			Scopes: scopesFor(m.c.Scopes, resource, acommon.ResourceScope),
		}
		tok, err := ocfg.PasswordCredentialsToken(tctx, strings.TrimSpace(m.c.Username), strings.TrimSpace(m.c.Password))
		if err != nil {
			return nil, err
		}
		// refresh_token, when issued, keeps the source alive past expiry
		return ocfg.TokenSource(tctx, tok), nil
	})
	if err != nil {
		return "", err
	}
	tok, err := ts.Token()
	if err != nil {
		m.cache.drop(resource)
		return "", err
	}
	return accessToken(tok)
}
