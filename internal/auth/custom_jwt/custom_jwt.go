package custom_jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures a self-signed HS256 token issuer. It stands in for a real
// identity platform in local workbenches: each token carries the requested
// resource as its audience.
type Config struct {
	// Secret is the HMAC secret key used for HS256 signing (required)
	Secret string `mapstructure:"secret" json:"secret" yaml:"secret"`
	// TTL controls expiration. Default 5 minutes.
	TTLSeconds int64 `mapstructure:"ttl_seconds" json:"ttl_seconds" yaml:"ttl_seconds"`

	Subject string   `mapstructure:"sub" json:"sub" yaml:"sub"`
	Issuer  string   `mapstructure:"iss" json:"iss" yaml:"iss"`
	Scopes  []string `mapstructure:"scopes" json:"scopes" yaml:"scopes"`

	// Custom is a bag for arbitrary custom fields to embed into the token
	Custom map[string]interface{} `mapstructure:"custom" json:"custom" yaml:"custom"`
}

// ToMap returns a spec compatible with the jwt issuer factory.
func (c Config) ToMap() map[string]interface{} {
	m := map[string]interface{}{"secret": c.Secret}
	if c.TTLSeconds > 0 {
		m["ttl_seconds"] = c.TTLSeconds
	}
	if c.Subject != "" {
		m["sub"] = c.Subject
	}
	if c.Issuer != "" {
		m["iss"] = c.Issuer
	}
	if len(c.Scopes) > 0 {
		m["scopes"] = c.Scopes
	}
	return m
}

// Issuer signs a fresh token for every GetToken call.
type Issuer struct {
	C   Config
	now func() time.Time
}

// New validates c and returns an Issuer.
func New(c Config) (*Issuer, error) {
	if len(c.Secret) == 0 {
		return nil, errors.New("custom_jwt: secret required")
	}
	return &Issuer{C: c, now: time.Now}, nil
}

func (i *Issuer) GetToken(_ context.Context, resource string) (string, error) {
	return i.issue(resource)
}

func (i *Issuer) issue(resource string) (string, error) {
	now := time.Now()
	if i.now != nil {
		now = i.now()
	}
	ttl := i.C.TTLSeconds
	if ttl <= 0 {
		ttl = 300
	}
	claims := jwt.MapClaims{}
	for k, v := range i.C.Custom {
		claims[k] = v
	}
	if i.C.Subject != "" {
		claims["sub"] = i.C.Subject
	}
	if i.C.Issuer != "" {
		claims["iss"] = i.C.Issuer
	}
	if r := strings.TrimSpace(resource); r != "" {
		claims["aud"] = r
	}
	if len(i.C.Scopes) > 0 {
		claims["scp"] = strings.Join(i.C.Scopes, " ")
	}
	claims["iat"] = now.Unix()
	claims["exp"] = now.Unix() + ttl

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(i.C.Secret))
}

// Verify parses and validates an HS256 token issued with secret for audience.
func Verify(secret []byte, token, audience string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("custom_jwt: invalid token claims")
	}
	return claims, nil
}
