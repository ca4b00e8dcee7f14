package oauth2

import (
	"errors"
	"strings"
	"sync"

	golangoauth2 "golang.org/x/oauth2"
)

// accessToken extracts the raw access token from an oauth2.Token.
func accessToken(tok *golangoauth2.Token) (string, error) {
	if tok == nil || !tok.Valid() || strings.TrimSpace(tok.AccessToken) == "" {
		return "", errors.New("oauth2: received invalid token")
	}
	return tok.AccessToken, nil
}

// sourceCache keeps one reusable token source per resource so repeated
// GetToken calls hit the token endpoint only when the cached token expires.
type sourceCache struct {
	mu         sync.Mutex
	byResource map[string]golangoauth2.TokenSource
}

func (c *sourceCache) get(resource string, build func() (golangoauth2.TokenSource, error)) (golangoauth2.TokenSource, error) {
	key := strings.TrimRight(strings.TrimSpace(resource), "/")
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts, ok := c.byResource[key]; ok {
		return ts, nil
	}
	ts, err := build()
	if err != nil {
		return nil, err
	}
	if c.byResource == nil {
		c.byResource = map[string]golangoauth2.TokenSource{}
	}
	c.byResource[key] = ts
	return ts, nil
}

// drop forgets the cached source for resource so the next call starts over.
func (c *sourceCache) drop(resource string) {
	key := strings.TrimRight(strings.TrimSpace(resource), "/")
	c.mu.Lock()
	delete(c.byResource, key)
	c.mu.Unlock()
}

// scopesFor returns the configured scopes, or the resource default scope.
func scopesFor(configured []string, resource string, def func(string) string) []string {
	if len(configured) > 0 {
		out := make([]string, len(configured))
		copy(out, configured)
		return out
	}
	if s := def(resource); s != "" {
		return []string{s}
	}
	return nil
}
