package auth

import (
	"errors"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	acommon "github.com/loykin/graphauth/internal/auth/common"
	"github.com/loykin/graphauth/internal/auth/custom_jwt"
	"github.com/loykin/graphauth/internal/auth/oauth2"
	"github.com/loykin/graphauth/internal/auth/static"
	"github.com/loykin/graphauth/internal/host"
)

// ErrUnsupportedType is returned when no factory is registered for a type key.
var ErrUnsupportedType = errors.New("auth: unsupported issuer type")

// Factory builds a TokenIssuer from a loosely-typed spec map.
// Decoding into a concrete config struct is the typical responsibility of a Factory.
type Factory func(spec map[string]interface{}) (host.TokenIssuer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers an issuer factory under a type key (e.g., "oauth2", "jwt").
// The key is normalized to lower-case. Empty keys and nil factories are ignored.
func Register(typ string, f Factory) {
	key := acommon.NormalizeKey(typ)
	if key == "" || f == nil {
		return
	}
	mu.Lock()
	factories[key] = f
	mu.Unlock()
}

// Types lists the registered type keys in sorted order.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether a factory is registered for typ.
func Supported(typ string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[acommon.NormalizeKey(typ)]
	return ok
}

// Build looks up the factory for typ and builds an issuer from spec.
func Build(typ string, spec map[string]interface{}) (host.TokenIssuer, error) {
	mu.RLock()
	f, ok := factories[acommon.NormalizeKey(typ)]
	mu.RUnlock()
	if !ok {
		return nil, errors.Join(ErrUnsupportedType, errors.New("type: "+typ))
	}
	if spec == nil {
		spec = map[string]interface{}{}
	}
	return f(spec)
}

// Built-in issuer registrations
func init() {
	Register(acommon.AuthTypeOAuth2, func(spec map[string]interface{}) (host.TokenIssuer, error) {
		var c oauth2.Config
		if err := mapstructure.Decode(spec, &c); err != nil {
			return nil, err
		}
		return c.GetGrantIssuer()
	})

	Register(acommon.AuthTypeJWT, func(spec map[string]interface{}) (host.TokenIssuer, error) {
		var c custom_jwt.Config
		if err := mapstructure.Decode(spec, &c); err != nil {
			return nil, err
		}
		return custom_jwt.New(c)
	})

	Register(acommon.AuthTypeStatic, func(spec map[string]interface{}) (host.TokenIssuer, error) {
		var c static.Config
		if err := mapstructure.Decode(spec, &c); err != nil {
			return nil, err
		}
		return &static.Issuer{C: c}, nil
	})
}
