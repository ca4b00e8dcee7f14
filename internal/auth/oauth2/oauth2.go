package oauth2

import (
	"errors"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/graphauth/internal/host"
)

// Config selects an OAuth2 grant and carries its grant-specific settings.
type Config struct {
	GrantType   string                 `mapstructure:"grant_type"`
	GrantConfig map[string]interface{} `mapstructure:"grant_config"`
}

// GetGrantIssuer builds the grant-specific token issuer from GrantType and GrantConfig.
func (c Config) GetGrantIssuer() (host.TokenIssuer, error) {
	gt := strings.ToLower(strings.TrimSpace(c.GrantType))
	if gt == "" {
		return nil, errors.New("auth: oauth2 grant_type is required")
	}
	if c.GrantConfig == nil {
		return nil, errors.New("auth: oauth2 grant_config is required")
	}
	switch gt {
	case "password":
		var pc PasswordConfig
		if err := mapstructure.Decode(c.GrantConfig, &pc); err != nil {
			return nil, err
		}
		if err := pc.validate(); err != nil {
			return nil, err
		}
		return &passwordIssuer{c: pc}, nil
	case "client_credentials", "client-credentials":
		var cc ClientCredentialsConfig
		if err := mapstructure.Decode(c.GrantConfig, &cc); err != nil {
			return nil, err
		}
		if err := cc.validate(); err != nil {
			return nil, err
		}
		return &clientCredentialsIssuer{c: cc}, nil
	default:
		return nil, errors.New("auth: unsupported oauth2 grant_type: " + gt)
	}
}
