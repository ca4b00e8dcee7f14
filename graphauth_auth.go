package graphauth

import (
	acommon "github.com/loykin/graphauth/internal/auth/common"
	"github.com/loykin/graphauth/internal/auth/custom_jwt"
	"github.com/loykin/graphauth/internal/auth/oauth2"
	"github.com/loykin/graphauth/internal/auth/static"
)

// Public constants for the built-in issuer type keys.
const (
	IssuerTypeOAuth2 = acommon.AuthTypeOAuth2
	IssuerTypeJWT    = acommon.AuthTypeJWT
	IssuerTypeStatic = acommon.AuthTypeStatic
)

// Public, type-safe wrappers for built-in issuers.
// These allow library users to configure issuers without using map[string]any.

// OAuth2ClientCredentialsConfig configures the client credentials grant.
// Scopes default to "<resource>/.default".
type OAuth2ClientCredentialsConfig oauth2.ClientCredentialsConfig

func (c OAuth2ClientCredentialsConfig) ToMap() map[string]interface{} {
	return oauth2.ClientCredentialsConfig(c).ToMap()
}

// OAuth2PasswordConfig configures the resource owner password grant.
type OAuth2PasswordConfig oauth2.PasswordConfig

func (c OAuth2PasswordConfig) ToMap() map[string]interface{} {
	return oauth2.PasswordConfig(c).ToMap()
}

// JWTConfig configures the self-signed HS256 issuer.
type JWTConfig custom_jwt.Config

func (c JWTConfig) ToMap() map[string]interface{} {
	return custom_jwt.Config(c).ToMap()
}

type StaticConfig static.Config

func (c StaticConfig) ToMap() map[string]interface{} {
	return static.Config(c).ToMap()
}
