package static

import (
	"context"
	"strings"
)

// Config holds a fixed token, optionally overridden per resource. An empty
// token is returned as-is: it is how a host reports a signed-out user.
type Config struct {
	Token     string            `mapstructure:"token" yaml:"token"`
	Resources map[string]string `mapstructure:"resources" yaml:"resources"`
}

// ToMap returns a spec compatible with the static issuer factory.
func (c Config) ToMap() map[string]interface{} {
	m := map[string]interface{}{"token": c.Token}
	if len(c.Resources) > 0 {
		m["resources"] = c.Resources
	}
	return m
}

type Issuer struct{ C Config }

func (i Issuer) GetToken(_ context.Context, resource string) (string, error) {
	key := strings.TrimRight(strings.TrimSpace(resource), "/")
	for r, tok := range i.C.Resources {
		if strings.TrimRight(strings.TrimSpace(r), "/") == key {
			return tok, nil
		}
	}
	return i.C.Token, nil
}
