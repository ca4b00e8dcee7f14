// Package config loads the graphauth YAML configuration through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/graphauth/internal/auth"
	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/host"
	"github.com/loykin/graphauth/internal/host/discovery"
	"github.com/loykin/graphauth/internal/httpc"
	"github.com/loykin/graphauth/internal/provider"
	"github.com/loykin/graphauth/internal/store"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GRAPHAUTH_BASE_URL.
const EnvPrefix = "GRAPHAUTH"

// DefaultServerAddr is the listen address of the sidecar server.
const DefaultServerAddr = ":8080"

type IssuerConfig struct {
	// Issuer type key (e.g., "oauth2", "jwt", "static")
	Type string `mapstructure:"type" yaml:"type"`
	// Issuer-specific configuration, expanded against the environment before use
	Config map[string]interface{} `mapstructure:"config" yaml:"config"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Secret enables HS256 bearer verification on the sidecar routes
	Secret   string `mapstructure:"secret" yaml:"secret"`
	Audience string `mapstructure:"audience" yaml:"audience"`
}

// Config is the whole configuration document.
type Config struct {
	// BaseURL overrides discovery when set
	BaseURL   string           `mapstructure:"base_url" yaml:"base_url"`
	Authority string           `mapstructure:"authority" yaml:"authority"`
	Scopes    []string         `mapstructure:"scopes" yaml:"scopes"`
	Issuer    IssuerConfig     `mapstructure:"issuer" yaml:"issuer"`
	Discovery discovery.Config `mapstructure:"discovery" yaml:"discovery"`
	Client    httpc.Httpc      `mapstructure:"client" yaml:"client"`
	Logging   LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Store     store.Config     `mapstructure:"store" yaml:"store"`
	Server    ServerConfig     `mapstructure:"server" yaml:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "")
	v.SetDefault("authority", "")
	// registered so GRAPHAUTH_SCOPES applies without a scopes key in the file
	v.SetDefault("scopes", []string{})
	v.SetDefault("issuer.type", "")
	v.SetDefault("discovery.url", "")
	v.SetDefault("discovery.field", discovery.DefaultField)
	v.SetDefault("client.insecure", false)
	v.SetDefault("client.min_tls_version", "")
	v.SetDefault("client.max_tls_version", "")
	v.SetDefault("client.timeout", httpc.DefaultTimeout)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("store.disabled", false)
	v.SetDefault("store.type", store.TypeSQLite)
	v.SetDefault("store.table", store.DefaultTable)
	v.SetDefault("store.sqlite.path", "")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.secret", "")
	v.SetDefault("server.audience", "")
}

// Load reads the YAML file at path and applies GRAPHAUTH_* overrides. An
// empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		clean := filepath.Clean(path)
		// Ensure path points to a regular file to avoid opening directories/special files
		info, err := os.Stat(clean)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("config: not a regular file: %s", clean)
		}
		v.SetConfigFile(clean)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", clean, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	// GRAPHAUTH_SCOPES arrives as a single comma-separated string
	c.Scopes = splitList(c.Scopes)
	return &c, nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate checks the issuer and store sections.
func (c *Config) Validate() error {
	typ := strings.TrimSpace(c.Issuer.Type)
	if typ == "" {
		return fmt.Errorf("config: issuer.type is required (one of %s)", strings.Join(auth.Types(), ", "))
	}
	if !auth.Supported(typ) {
		return fmt.Errorf("config: unsupported issuer.type %q (one of %s)", typ, strings.Join(auth.Types(), ", "))
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("config: client.timeout must not be negative")
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// HostContext wires the configured issuer and, when discovery.url is set,
// the discovery client factory.
func (c *Config) HostContext() host.Context {
	hc := host.Context{Issuers: auth.New(c.Issuer.Type, c.Issuer.Config)}
	if strings.TrimSpace(c.Discovery.URL) != "" {
		hc.Clients = discovery.New(c.Discovery, &c.Client)
	}
	return hc
}

// ProviderOptions maps the config onto provider options.
func (c *Config) ProviderOptions() []provider.Option {
	opts := []provider.Option{
		provider.WithScopes(c.Scopes...),
		provider.WithAuthority(c.Authority),
		provider.WithHTTP(&c.Client),
	}
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		opts = append(opts, provider.WithBaseURL(u))
	}
	return opts
}

// Timeout returns the client timeout, or the default when unset.
func (c *Config) Timeout() time.Duration {
	if c.Client.Timeout <= 0 {
		return httpc.DefaultTimeout
	}
	return c.Client.Timeout
}

func parseLevel(s string) (common.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "warn", "warning", "info", "debug", "":
		return common.ParseLogLevel(s), nil
	default:
		return common.LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", s)
	}
}

// SetupLogging configures the global logger and masking from the logging section.
func (c *Config) SetupLogging() error {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return err
	}

	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	var logger *common.Logger
	switch format {
	case "json":
		logger = common.NewJSONLogger(level)
	case "text", "":
		format = "text"
		logger = common.NewLogger(level)
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	common.EnableMasking(maskingEnabled)
	common.SetDefaultLogger(logger)

	logger.Debug("logging configured", "level", level.String(), "format", format, "mask_sensitive", maskingEnabled)
	return nil
}
