// Package discovery implements host.ClientFactory by reading the service base
// URL from a JSON metadata document.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/host"
	"github.com/loykin/graphauth/internal/httpc"
	"github.com/tidwall/gjson"
)

// DefaultField is the gjson path read from the metadata document.
const DefaultField = "graph_base_url"

// ErrBaseURLNotFound is returned when the document has no usable base URL.
var ErrBaseURLNotFound = errors.New("discovery: base url not found")

// Config selects the metadata document and the JSON path of the base URL.
type Config struct {
	URL     string            `mapstructure:"url" yaml:"url"`
	Field   string            `mapstructure:"field" yaml:"field"`
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// Factory fetches the metadata document on every Client call.
type Factory struct {
	cfg  Config
	http *httpc.Httpc
}

// New returns a Factory. A nil hc uses default client settings.
func New(cfg Config, hc *httpc.Httpc) *Factory {
	if strings.TrimSpace(cfg.Field) == "" {
		cfg.Field = DefaultField
	}
	return &Factory{cfg: cfg, http: hc}
}

// Client implements host.ClientFactory.
func (f *Factory) Client(ctx context.Context) (host.Client, error) {
	u := strings.TrimSpace(f.cfg.URL)
	if u == "" {
		return nil, errors.New("discovery: url is required")
	}
	logger := common.GetLogger().WithComponent("discovery").WithRequest("GET", u)

	resp, err := f.http.New().R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeaders(f.cfg.Headers).
		Get(u)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("discovery: metadata returned %d", resp.StatusCode())
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, errors.New("discovery: invalid JSON metadata")
	}
	v := strings.TrimSpace(gjson.GetBytes(body, f.cfg.Field).String())
	if v == "" {
		return nil, ErrBaseURLNotFound
	}
	parsed, err := url.Parse(v)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) url", ErrBaseURLNotFound, v)
	}
	logger.Debug("base url discovered", "base_url", v)
	return host.StaticClient(v), nil
}
