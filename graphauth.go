package graphauth

import (
	"context"

	"github.com/loykin/graphauth/internal/auth"
	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/graph"
	"github.com/loykin/graphauth/internal/host"
	"github.com/loykin/graphauth/internal/host/discovery"
	"github.com/loykin/graphauth/internal/httpc"
	"github.com/loykin/graphauth/internal/provider"
	"github.com/loykin/graphauth/internal/store"
)

// Re-export commonly used types for public API

// Provider is the capability generic consumers depend on.
type Provider = provider.Provider

// Adapter is the Provider backed by a host context.
type Adapter = provider.Adapter

type Option = provider.Option
type State = provider.State
type StateChange = provider.StateChange
type Listener = provider.Listener

const (
	StateLoading   = provider.StateLoading
	StateSignedOut = provider.StateSignedOut
	StateSignedIn  = provider.StateSignedIn
)

// DefaultBaseURL is used when neither an override nor the host supplies one.
const DefaultBaseURL = provider.DefaultBaseURL

var (
	ErrNotReady = provider.ErrNotReady
	ErrNoIssuer = provider.ErrNoIssuer
)

var (
	WithBaseURL   = provider.WithBaseURL
	WithScopes    = provider.WithScopes
	WithAuthority = provider.WithAuthority
	WithHTTP      = provider.WithHTTP
	WithLogger    = provider.WithLogger
	WithListener  = provider.WithListener
)

// New creates an Adapter and starts its initialization in the background.
func New(ctx context.Context, hc HostContext, opts ...Option) *Adapter {
	return provider.New(ctx, hc, opts...)
}

// Start creates an Adapter and waits for its initialization.
func Start(ctx context.Context, hc HostContext, opts ...Option) (*Adapter, error) {
	return provider.Start(ctx, hc, opts...)
}

// Host capabilities

type HostContext = host.Context
type TokenIssuer = host.TokenIssuer
type IssuerFactory = host.IssuerFactory
type Client = host.Client
type ClientFactory = host.ClientFactory
type IssuerFunc = host.IssuerFunc
type StaticClient = host.StaticClient

// Issuers wraps a ready issuer as an IssuerFactory.
func Issuers(issuer TokenIssuer) IssuerFactory { return host.Issuers(issuer) }

// DiscoveryConfig selects the metadata document read for the base URL.
type DiscoveryConfig = discovery.Config

// NewDiscovery returns a ClientFactory that reads the base URL from a JSON
// metadata document.
func NewDiscovery(cfg DiscoveryConfig, hc *HTTPConfig) ClientFactory { return discovery.New(cfg, hc) }

// HTTPConfig describes outbound client TLS and timeout settings.
type HTTPConfig = httpc.Httpc

// Graph client

type GraphClient = graph.Client
type TokenInfo = graph.TokenInfo

// NewGraphClient binds a graph client to p.
func NewGraphClient(p Provider, baseURL string, hc *HTTPConfig) *GraphClient {
	return graph.New(p, baseURL, hc)
}

// InspectToken decodes JWT claims without verification.
func InspectToken(token string) (*TokenInfo, error) { return graph.Inspect(token) }

// State journal

type Journal = store.Journal
type StoreConfig = store.Config
type StoreEvent = store.Event

// OpenStore opens the configured state journal.
func OpenStore(ctx context.Context, cfg StoreConfig) (*store.Store, error) { return store.Open(ctx, cfg) }

// RecordTo returns a listener that records state transitions in j.
func RecordTo(ctx context.Context, j Journal) Listener { return store.Listener(ctx, j) }

// Issuer registry

type IssuerFactoryFunc = auth.Factory

// RegisterIssuer exposes custom issuer registration for library users.
func RegisterIssuer(typ string, f IssuerFactoryFunc) { auth.Register(typ, f) }

// NewIssuerFactory returns an IssuerFactory building the issuer of type typ
// from spec on first use.
func NewIssuerFactory(typ string, spec map[string]interface{}) IssuerFactory { return auth.New(typ, spec) }

// Logging

type Logger = common.Logger
type LogLevel = common.LogLevel

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

func NewLogger(level LogLevel) *Logger     { return common.NewLogger(level) }
func NewJSONLogger(level LogLevel) *Logger { return common.NewJSONLogger(level) }
func SetDefaultLogger(l *Logger)           { common.SetDefaultLogger(l) }
func EnableMasking(enabled bool)           { common.EnableMasking(enabled) }
