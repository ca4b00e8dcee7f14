package graph

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what status output shows about a token. It is read without
// verifying the signature and must not be used for authorization.
type TokenInfo struct {
	Subject   string    `json:"sub,omitempty" yaml:"sub,omitempty"`
	Audience  []string  `json:"aud,omitempty" yaml:"aud,omitempty"`
	Scopes    []string  `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Inspect decodes a JWT access token without verifying it. Opaque tokens
// return an error.
func Inspect(token string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	info := &TokenInfo{}
	info.Subject, _ = claims.GetSubject()
	if aud, err := claims.GetAudience(); err == nil {
		info.Audience = aud
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.UTC()
		info.ExpiresAt = &t
	}
	switch scp := claims["scp"].(type) {
	case string:
		info.Scopes = strings.Fields(scp)
	case []interface{}:
		for _, s := range scp {
			if str, ok := s.(string); ok {
				info.Scopes = append(info.Scopes, str)
			}
		}
	}
	if roles, ok := claims["roles"].([]interface{}); ok && len(info.Scopes) == 0 {
		for _, r := range roles {
			if str, ok := r.(string); ok {
				info.Scopes = append(info.Scopes, str)
			}
		}
	}
	return info, nil
}
