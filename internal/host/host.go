// Package host defines the capabilities a hosting environment hands to a token
// provider: something that produces token issuers and something that yields a
// client carrying the service base URL.
package host

import (
	"context"
	"errors"
)

// ErrNoClientFactory is returned by Context.Client when the host exposes no
// client factory.
var ErrNoClientFactory = errors.New("host: no client factory")

// ErrNoIssuerFactory is returned by Context.TokenIssuer when the host exposes no
// issuer factory.
var ErrNoIssuerFactory = errors.New("host: no token issuer factory")

// TokenIssuer produces an access token for a resource URL.
type TokenIssuer interface {
	GetToken(ctx context.Context, resource string) (string, error)
}

// IssuerFactory yields the TokenIssuer of the host. It may block for as long as
// the host needs.
type IssuerFactory interface {
	TokenIssuer(ctx context.Context) (TokenIssuer, error)
}

// Client is the host's service client. Only its base URL is consulted.
type Client interface {
	BaseURL() string
}

// ClientFactory yields the host's service client.
type ClientFactory interface {
	Client(ctx context.Context) (Client, error)
}

// Context bundles the host capabilities handed to a provider. It is owned by
// the host; providers keep references but never recreate or dispose them.
type Context struct {
	Issuers IssuerFactory
	Clients ClientFactory
}

// TokenIssuer asks the issuer factory for an issuer.
func (c Context) TokenIssuer(ctx context.Context) (TokenIssuer, error) {
	if c.Issuers == nil {
		return nil, ErrNoIssuerFactory
	}
	return c.Issuers.TokenIssuer(ctx)
}

// Client asks the client factory for a client.
func (c Context) Client(ctx context.Context) (Client, error) {
	if c.Clients == nil {
		return nil, ErrNoClientFactory
	}
	return c.Clients.Client(ctx)
}

// IssuerFunc adapts a function to TokenIssuer.
type IssuerFunc func(ctx context.Context, resource string) (string, error)

func (f IssuerFunc) GetToken(ctx context.Context, resource string) (string, error) {
	return f(ctx, resource)
}

// IssuerFactoryFunc adapts a function to IssuerFactory.
type IssuerFactoryFunc func(ctx context.Context) (TokenIssuer, error)

func (f IssuerFactoryFunc) TokenIssuer(ctx context.Context) (TokenIssuer, error) {
	return f(ctx)
}

// ClientFactoryFunc adapts a function to ClientFactory.
type ClientFactoryFunc func(ctx context.Context) (Client, error)

func (f ClientFactoryFunc) Client(ctx context.Context) (Client, error) {
	return f(ctx)
}

// StaticClient is a Client with a fixed base URL.
type StaticClient string

func (s StaticClient) BaseURL() string { return string(s) }

// Issuers returns an IssuerFactory that always yields the given issuer.
func Issuers(issuer TokenIssuer) IssuerFactory {
	return IssuerFactoryFunc(func(context.Context) (TokenIssuer, error) {
		return issuer, nil
	})
}
