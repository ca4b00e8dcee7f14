package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	acommon "github.com/loykin/graphauth/internal/auth/common"
	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/host"
)

// Auth is the configured token issuer factory. It implements host.IssuerFactory:
// the issuer is built on first request and then shared.
type Auth struct {
	typ  string
	spec map[string]interface{}

	once   sync.Once
	issuer host.TokenIssuer
	err    error
}

// New returns an issuer factory for the given type key and provider spec.
func New(typ string, spec map[string]interface{}) *Auth {
	return &Auth{typ: typ, spec: spec}
}

// Type returns the configured issuer type key.
func (a *Auth) Type() string {
	if a == nil {
		return ""
	}
	return acommon.NormalizeKey(a.typ)
}

// TokenIssuer builds (once) and returns the issuer for this configuration.
// String values in Config are expanded against the process environment
// (${VAR} syntax) so secrets can stay out of config files.
func (a *Auth) TokenIssuer(ctx context.Context) (host.TokenIssuer, error) {
	if a == nil {
		return nil, fmt.Errorf("auth: missing issuer configuration")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.once.Do(func() {
		pt := strings.TrimSpace(a.typ)
		if pt == "" {
			a.err = fmt.Errorf("auth: missing type")
			return
		}
		rendered, _ := expandEnv(a.spec).(map[string]interface{})
		a.issuer, a.err = Build(pt, rendered)
		if a.err == nil {
			common.GetLogger().WithIssuer(pt).Debug("token issuer ready")
		}
	})
	return a.issuer, a.err
}

// expandEnv walks maps and slices from a decoded config and expands ${VAR}
// references in every string value.
func expandEnv(in interface{}) interface{} {
	switch t := in.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, v := range t {
			m[k] = expandEnv(v)
		}
		return m
	case []interface{}:
		arr := make([]interface{}, len(t))
		for i := range t {
			arr[i] = expandEnv(t[i])
		}
		return arr
	case []string:
		arr := make([]string, len(t))
		for i := range t {
			arr[i] = os.ExpandEnv(t[i])
		}
		return arr
	case string:
		return os.ExpandEnv(t)
	default:
		return in
	}
}
