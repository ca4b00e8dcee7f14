package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	acommon "github.com/loykin/graphauth/internal/auth/common"
	"github.com/loykin/graphauth/internal/config"
	"github.com/loykin/graphauth/internal/provider"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// loadConfig reads, validates and applies the config: logging and the
// client settings shared by every issuer.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.SetupLogging(); err != nil {
		return nil, err
	}
	acommon.SetClientConfig(&c.Client)
	return c, nil
}

// startProvider creates the provider and waits for initialization within
// the --timeout budget. The adapter is returned even when init fails.
func startProvider(ctx context.Context, c *config.Config, extra ...provider.Option) (*provider.Adapter, error) {
	ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("timeout"))
	defer cancel()
	opts := append(c.ProviderOptions(), extra...)
	return provider.Start(ctx, c.HostContext(), opts...)
}

func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		return text(w)
	default:
		return fmt.Errorf("unsupported output format %q (valid: text, json, yaml)", format)
	}
}
