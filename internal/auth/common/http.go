package common

import (
	"context"
	"net/http"
	"sync"

	"github.com/loykin/graphauth/internal/httpc"
	"golang.org/x/oauth2"
)

// Package-level client settings used by issuer HTTP calls (oauth2 token endpoints).
// This mirrors the client section of the config so issuers honor the same TLS
// and timeout settings as discovery.
var (
	mu           sync.RWMutex
	clientConfig *httpc.Httpc
)

// SetClientConfig sets the settings used to build issuer HTTP clients.
func SetClientConfig(cfg *httpc.Httpc) {
	mu.Lock()
	clientConfig = cfg
	mu.Unlock()
}

// GetClientConfig returns the currently configured client settings.
func GetClientConfig() *httpc.Httpc {
	mu.RLock()
	defer mu.RUnlock()
	return clientConfig
}

// HTTPClient builds an *http.Client from the current client settings.
func HTTPClient() *http.Client {
	return GetClientConfig().New().GetClient()
}

// TokenContext detaches ctx from cancellation and attaches the issuer HTTP
// client, so cached token sources can refresh after the first caller is gone.
func TokenContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, HTTPClient())
}
