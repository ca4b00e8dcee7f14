package httpc

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every outbound call made by the token issuers and the
// discovery client when the config does not set one.
const DefaultTimeout = 10 * time.Second

// Httpc describes how outbound HTTP clients are built.
type Httpc struct {
	Insecure      bool          `mapstructure:"insecure" yaml:"insecure"`
	MinTLSVersion string        `mapstructure:"min_tls_version" yaml:"min_tls_version"`
	MaxTLSVersion string        `mapstructure:"max_tls_version" yaml:"max_tls_version"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// TLSConfig returns the tls.Config derived from the settings, or nil when the
// defaults apply.
func (h *Httpc) TLSConfig() *tls.Config {
	if h == nil {
		return nil
	}
	minV := parseTLSVersion(h.MinTLSVersion)
	maxV := parseTLSVersion(h.MaxTLSVersion)
	if !h.Insecure && minV == 0 && maxV == 0 {
		return nil
	}
	cfg := &tls.Config{MinVersion: minV, MaxVersion: maxV}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	if h.Insecure {
		cfg.InsecureSkipVerify = true // #nosec G402 -- opt-in for local workbench hosts
	}
	return cfg
}

// New returns a resty.Client configured according to the receiver's settings.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	timeout := DefaultTimeout
	if h != nil && h.Timeout > 0 {
		timeout = h.Timeout
	}
	c.SetTimeout(timeout)
	if cfg := h.TLSConfig(); cfg != nil {
		c.SetTLSClientConfig(cfg)
	}
	return c
}

func parseTLSVersion(s string) uint16 {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "tls")
	v = strings.TrimPrefix(v, "v")
	switch v {
	case "1.0", "10":
		return tls.VersionTLS10
	case "1.1", "11":
		return tls.VersionTLS11
	case "1.2", "12":
		return tls.VersionTLS12
	case "1.3", "13":
		return tls.VersionTLS13
	default:
		return 0
	}
}
