// Package provider adapts a host token issuer into a generic access token
// provider with a signed-in/signed-out status.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/loykin/graphauth/internal/common"
	"github.com/loykin/graphauth/internal/graph"
	"github.com/loykin/graphauth/internal/host"
	"github.com/loykin/graphauth/internal/httpc"
)

// DefaultBaseURL is used when no override is given and the host client
// factory cannot supply one.
const DefaultBaseURL = "https://graph.microsoft.com"

var (
	// ErrNotReady is returned by AccessToken before the token issuer is resolved.
	ErrNotReady = errors.New("provider: token issuer not resolved yet")
	// ErrNoIssuer is reported when the host factory yields a nil issuer.
	ErrNoIssuer = errors.New("provider: host returned no token issuer")
)

// Provider is the capability generic consumers depend on.
type Provider interface {
	AccessToken(ctx context.Context) (string, error)
	UpdateScopes(scopes []string)
	IsLoggedIn() bool
	State() State
}

// Listener receives state transitions, in the order they happened. It runs
// on the goroutine that caused the change (or that is already delivering),
// so a slow listener delays that caller.
type Listener func(StateChange)

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL sets the base URL override. It is used verbatim; the host
// client factory is not consulted.
func WithBaseURL(u string) Option { return func(a *Adapter) { a.override = u } }

// WithScopes sets the initial scope list.
func WithScopes(scopes ...string) Option {
	return func(a *Adapter) { a.scopes = append([]string(nil), scopes...) }
}

// WithAuthority sets the authority string. It is carried for consumers only.
func WithAuthority(authority string) Option { return func(a *Adapter) { a.authority = authority } }

// WithHTTP sets the client settings of the graph client built after init.
func WithHTTP(hc *httpc.Httpc) Option { return func(a *Adapter) { a.http = hc } }

// WithLogger overrides the logger.
func WithLogger(l *common.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithListener registers a state listener before initialization starts, so
// the first transition is never missed.
func WithListener(fn Listener) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.listeners = append(a.listeners, listenerEntry{id: a.nextID, fn: fn})
			a.nextID++
		}
	}
}

type listenerEntry struct {
	id int
	fn Listener
}

type delivery struct {
	change    StateChange
	listeners []listenerEntry
}

// Adapter is a Provider backed by a host.Context.
type Adapter struct {
	hc       host.Context
	override string
	http     *httpc.Httpc
	logger   *common.Logger
	ready    chan struct{}

	mu        sync.RWMutex
	baseURL   string
	scopes    []string
	authority string
	issuer    host.TokenIssuer
	graph     *graph.Client
	lastToken string
	state     State
	initErr   error
	listeners []listenerEntry
	nextID    int

	// pending changes are delivered in state order by one goroutine at a time
	pending    []delivery
	delivering bool
}

var _ Provider = (*Adapter)(nil)

// New creates an Adapter and starts its initialization in the background:
// resolve the base URL, acquire the token issuer, build the graph client and
// fetch a first token to settle the state. Use Ready or Wait to observe the
// outcome. ctx bounds the initialization only.
func New(ctx context.Context, hc host.Context, opts ...Option) *Adapter {
	a := &Adapter{
		hc:     hc,
		logger: common.GetLogger().WithComponent("provider"),
		ready:  make(chan struct{}),
		state:  StateLoading,
	}
	for _, opt := range opts {
		opt(a)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go a.init(ctx)
	return a
}

// Start is New followed by Wait.
func Start(ctx context.Context, hc host.Context, opts ...Option) (*Adapter, error) {
	a := New(ctx, hc, opts...)
	if err := a.Wait(ctx); err != nil {
		return a, err
	}
	return a, nil
}

func (a *Adapter) init(ctx context.Context) {
	defer close(a.ready)

	base := a.resolveBaseURL(ctx)
	a.mu.Lock()
	a.baseURL = base
	a.mu.Unlock()

	issuer, err := a.hc.TokenIssuer(ctx)
	if err != nil {
		a.fail(fmt.Errorf("provider: acquire token issuer: %w", err))
		return
	}
	if issuer == nil {
		a.fail(ErrNoIssuer)
		return
	}

	a.mu.Lock()
	a.issuer = issuer
	a.graph = graph.New(a, base, a.http)
	a.mu.Unlock()

	if _, err := a.AccessToken(ctx); err != nil {
		a.fail(fmt.Errorf("provider: initial token fetch: %w", err))
		return
	}
	a.logger.Info("provider initialized", "base_url", base, "state", a.State().String())
}

func (a *Adapter) resolveBaseURL(ctx context.Context) string {
	if a.override != "" {
		return a.override
	}
	client, err := a.hc.Client(ctx)
	if err != nil {
		a.logger.Warn("base url discovery failed, using default", "error", err, "base_url", DefaultBaseURL)
		return DefaultBaseURL
	}
	u, err := clientBaseURL(client)
	if err != nil {
		a.logger.Warn("host client failed, using default", "error", err, "base_url", DefaultBaseURL)
		return DefaultBaseURL
	}
	if u == "" {
		a.logger.Warn("host client has no base url, using default", "base_url", DefaultBaseURL)
		return DefaultBaseURL
	}
	return u
}

// clientBaseURL reads the base URL, turning a panic (e.g. a typed-nil
// client) into an error.
func clientBaseURL(c host.Client) (u string, err error) {
	if c == nil {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider: host client panicked: %v", r)
		}
	}()
	return c.BaseURL(), nil
}

func (a *Adapter) fail(err error) {
	a.mu.Lock()
	a.initErr = err
	a.mu.Unlock()
	a.logger.Error("provider initialization failed", "error", err)
	a.transition(func() { a.lastToken = "" }, StateSignedOut)
}

// transition applies mutate and moves to next under the lock. Real changes
// are queued in the order they happened and delivered to listeners outside
// the lock. A transition raised while another goroutine (or a listener) is
// delivering is handed to that deliverer, so listeners see changes in order
// and may call back into the Adapter.
func (a *Adapter) transition(mutate func(), next State) {
	a.mu.Lock()
	if mutate != nil {
		mutate()
	}
	prev := a.state
	a.state = next
	if prev != next && len(a.listeners) > 0 {
		a.pending = append(a.pending, delivery{
			change:    StateChange{Previous: prev, Current: next, BaseURL: a.baseURL, At: time.Now().UTC()},
			listeners: append([]listenerEntry(nil), a.listeners...),
		})
	}
	if a.delivering || len(a.pending) == 0 {
		a.mu.Unlock()
		return
	}
	a.delivering = true
	drained := false
	defer func() {
		// a listener panicked: release delivery so later transitions still notify
		if !drained {
			a.mu.Lock()
			a.delivering = false
			a.pending = nil
			a.mu.Unlock()
		}
	}()
	for len(a.pending) > 0 {
		d := a.pending[0]
		a.pending = a.pending[1:]
		a.mu.Unlock()
		for _, l := range d.listeners {
			l.fn(d.change)
		}
		a.mu.Lock()
	}
	a.delivering = false
	drained = true
	a.mu.Unlock()
}

// AccessToken asks the token issuer for a token for the base URL. Issuer
// errors are returned unchanged. A successful fetch refreshes the held token
// and the state: a non-empty token means signed in.
func (a *Adapter) AccessToken(ctx context.Context) (string, error) {
	a.mu.RLock()
	issuer, base := a.issuer, a.baseURL
	a.mu.RUnlock()
	if issuer == nil {
		return "", ErrNotReady
	}

	tok, err := issuer.GetToken(ctx, base)
	if err != nil {
		return "", err
	}

	next := StateSignedOut
	if tok != "" {
		next = StateSignedIn
	}
	a.transition(func() { a.lastToken = tok }, next)
	return tok, nil
}

// UpdateScopes replaces the scope list. Scopes are not forwarded to the issuer.
func (a *Adapter) UpdateScopes(scopes []string) {
	cp := append([]string(nil), scopes...)
	a.mu.Lock()
	a.scopes = cp
	a.mu.Unlock()
}

// Scopes returns a copy of the current scope list.
func (a *Adapter) Scopes() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.scopes...)
}

// IsLoggedIn reports whether a non-empty token is held.
func (a *Adapter) IsLoggedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastToken != ""
}

func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// BaseURL returns the resolved base URL, or "" before resolution.
func (a *Adapter) BaseURL() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.baseURL
}

func (a *Adapter) Authority() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authority
}

func (a *Adapter) SetAuthority(authority string) {
	a.mu.Lock()
	a.authority = authority
	a.mu.Unlock()
}

// Issuer returns the host token issuer, nil until resolved.
func (a *Adapter) Issuer() host.TokenIssuer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.issuer
}

// Graph returns the graph client bound to this provider, nil until the
// issuer is resolved.
func (a *Adapter) Graph() *graph.Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.graph
}

// SignOut drops the held token and moves to StateSignedOut. The issuer is
// kept; the next successful AccessToken signs in again.
func (a *Adapter) SignOut() {
	a.transition(func() { a.lastToken = "" }, StateSignedOut)
}

// OnStateChanged registers fn and returns a function that removes it.
func (a *Adapter) OnStateChanged(fn Listener) (remove func()) {
	if fn == nil {
		return func() {}
	}
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners = append(a.listeners, listenerEntry{id: id, fn: fn})
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}

// Ready is closed once initialization has finished, successfully or not.
func (a *Adapter) Ready() <-chan struct{} { return a.ready }

// Wait blocks until initialization finishes or ctx is done, and returns the
// initialization error.
func (a *Adapter) Wait(ctx context.Context) error {
	select {
	case <-a.ready:
		return a.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the initialization error; nil while initialization runs.
func (a *Adapter) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initErr
}
