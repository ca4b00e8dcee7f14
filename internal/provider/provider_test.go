package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loykin/graphauth/internal/host"
)

// tokens maps resource URL to the token the fake issuer returns.
type fakeIssuer struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
	calls  []string
}

func (f *fakeIssuer) GetToken(_ context.Context, resource string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, resource)
	if f.err != nil {
		return "", f.err
	}
	return f.tokens[resource], nil
}

func (f *fakeIssuer) set(resource, tok string, err error) {
	f.mu.Lock()
	f.tokens[resource] = tok
	f.err = err
	f.mu.Unlock()
}

func newIssuer(resource, tok string) *fakeIssuer {
	return &fakeIssuer{tokens: map[string]string{resource: tok}}
}

func clients(baseURL string, err error) host.ClientFactory {
	return host.ClientFactoryFunc(func(context.Context) (host.Client, error) {
		if err != nil {
			return nil, err
		}
		return host.StaticClient(baseURL), nil
	})
}

func start(t *testing.T, hc host.Context, opts ...Option) *Adapter {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, err := Start(ctx, hc, opts...)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return a
}

func TestBaseURL_OverrideWinsOverClientFactory(t *testing.T) {
	is := newIssuer("https://override.example", "t")
	a := start(t, host.Context{
		Issuers: host.Issuers(is),
		Clients: clients("https://custom.example", nil),
	}, WithBaseURL("https://override.example"))
	if a.BaseURL() != "https://override.example" {
		t.Fatalf("expected override, got %q", a.BaseURL())
	}
}

func TestBaseURL_FromClientFactory(t *testing.T) {
	is := newIssuer("https://custom.example", "t")
	a := start(t, host.Context{Issuers: host.Issuers(is), Clients: clients("https://custom.example", nil)})
	if a.BaseURL() != "https://custom.example" {
		t.Fatalf("expected discovered base url, got %q", a.BaseURL())
	}
	if len(is.calls) != 1 || is.calls[0] != "https://custom.example" {
		t.Fatalf("expected token requested for discovered base url, got %v", is.calls)
	}
}

func TestBaseURL_DefaultWhenClientFactoryFails(t *testing.T) {
	is := newIssuer(DefaultBaseURL, "t")
	a := start(t, host.Context{Issuers: host.Issuers(is), Clients: clients("", errors.New("no client"))})
	if a.BaseURL() != "https://graph.microsoft.com" {
		t.Fatalf("expected default base url, got %q", a.BaseURL())
	}
}

func TestBaseURL_DefaultWithoutClientFactoryOrEmptyURL(t *testing.T) {
	a := start(t, host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, "t"))})
	if a.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", a.BaseURL())
	}
	b := start(t, host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, "t")), Clients: clients("", nil)})
	if b.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url for empty client url, got %q", b.BaseURL())
	}
}

func TestIsLoggedIn_AfterNonEmptyToken(t *testing.T) {
	a := start(t, host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, "abc123"))})
	if !a.IsLoggedIn() {
		t.Fatal("expected logged in")
	}
	if a.State() != StateSignedIn {
		t.Fatalf("expected signed in, got %v", a.State())
	}
	if a.Graph() == nil || a.Graph().BaseURL() != DefaultBaseURL {
		t.Fatalf("expected graph client bound to base url")
	}
	if a.Issuer() == nil {
		t.Fatal("expected issuer to be exposed")
	}
}

func TestIsLoggedIn_FalseAfterEmptyToken(t *testing.T) {
	a := start(t, host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, ""))})
	if a.IsLoggedIn() {
		t.Fatal("expected not logged in")
	}
	if a.State() != StateSignedOut {
		t.Fatalf("expected signed out, got %v", a.State())
	}
}

func TestUpdateScopes_ReplacesInOrder(t *testing.T) {
	a := start(t, host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, "t"))}, WithScopes("User.Read"))
	in := []string{"a", "b"}
	a.UpdateScopes(in)
	in[0] = "mutated"
	got := a.Scopes()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
	got[1] = "mutated"
	if a.Scopes()[1] != "b" {
		t.Fatal("Scopes must return a copy")
	}
}

func TestAccessToken_ErrorPassesThroughUnchanged(t *testing.T) {
	is := newIssuer(DefaultBaseURL, "abc123")
	a := start(t, host.Context{Issuers: host.Issuers(is)})

	e := errors.New("E")
	is.set(DefaultBaseURL, "", e)
	_, err := a.AccessToken(context.Background())
	if err != e {
		t.Fatalf("expected the issuer error unchanged, got %v", err)
	}
	// a failed fetch keeps the last successful token
	if !a.IsLoggedIn() {
		t.Fatal("failed fetch must not clear the held token")
	}
}

func TestAccessToken_RefreshesState(t *testing.T) {
	is := newIssuer(DefaultBaseURL, "abc123")
	a := start(t, host.Context{Issuers: host.Issuers(is)})

	is.set(DefaultBaseURL, "", nil)
	if tok, err := a.AccessToken(context.Background()); err != nil || tok != "" {
		t.Fatalf("unexpected token %q err=%v", tok, err)
	}
	if a.IsLoggedIn() || a.State() != StateSignedOut {
		t.Fatal("empty token must sign out")
	}
	is.set(DefaultBaseURL, "again", nil)
	if _, err := a.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if !a.IsLoggedIn() || a.State() != StateSignedIn {
		t.Fatal("non-empty token must sign in")
	}
}

func TestAccessToken_NotReady(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	a := New(context.Background(), host.Context{
		Issuers: host.IssuerFactoryFunc(func(ctx context.Context) (host.TokenIssuer, error) {
			<-block
			return newIssuer(DefaultBaseURL, "t"), nil
		}),
	})
	if _, err := a.AccessToken(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if a.State() != StateLoading {
		t.Fatalf("expected loading, got %v", a.State())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Wait to time out, got %v", err)
	}
	select {
	case <-a.Ready():
		t.Fatal("ready must not be closed while the host blocks")
	default:
	}
}

func TestInit_IssuerFailureIsSurfaced(t *testing.T) {
	boom := errors.New("factory down")
	a := New(context.Background(), host.Context{
		Issuers: host.IssuerFactoryFunc(func(context.Context) (host.TokenIssuer, error) { return nil, boom }),
	})
	err := a.Wait(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
	if !errors.Is(a.Err(), boom) {
		t.Fatalf("Err should report the init error, got %v", a.Err())
	}
	if a.State() != StateSignedOut || a.IsLoggedIn() {
		t.Fatal("failed init must settle signed out")
	}
	if a.BaseURL() != DefaultBaseURL {
		t.Fatalf("base url should be resolved before issuer failure, got %q", a.BaseURL())
	}
}

func TestInit_NilIssuerAndFetchFailure(t *testing.T) {
	a := New(context.Background(), host.Context{
		Issuers: host.IssuerFactoryFunc(func(context.Context) (host.TokenIssuer, error) { return nil, nil }),
	})
	if err := a.Wait(context.Background()); !errors.Is(err, ErrNoIssuer) {
		t.Fatalf("expected ErrNoIssuer, got %v", err)
	}

	e := errors.New("denied")
	is := &fakeIssuer{tokens: map[string]string{}, err: e}
	b := New(context.Background(), host.Context{Issuers: host.Issuers(is)})
	if err := b.Wait(context.Background()); !errors.Is(err, e) {
		t.Fatalf("expected initial fetch error, got %v", err)
	}
	if b.State() != StateSignedOut {
		t.Fatalf("expected signed out, got %v", b.State())
	}
}

func TestListeners_TransitionsAndRemoval(t *testing.T) {
	var mu sync.Mutex
	var seen []StateChange
	record := func(c StateChange) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	}
	is := newIssuer(DefaultBaseURL, "abc123")
	a := start(t, host.Context{Issuers: host.Issuers(is)}, WithListener(record))

	// same state again: no notification
	if _, err := a.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	var late []StateChange
	remove := a.OnStateChanged(func(c StateChange) { late = append(late, c) })
	a.SignOut()
	remove()
	if _, err := a.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []struct{ from, to State }{
		{StateLoading, StateSignedIn},
		{StateSignedIn, StateSignedOut},
		{StateSignedOut, StateSignedIn},
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d transitions, got %+v", len(want), seen)
	}
	for i, w := range want {
		if seen[i].Previous != w.from || seen[i].Current != w.to {
			t.Fatalf("transition %d: got %v->%v want %v->%v", i, seen[i].Previous, seen[i].Current, w.from, w.to)
		}
		if seen[i].BaseURL != DefaultBaseURL {
			t.Fatalf("transition %d: unexpected base url %q", i, seen[i].BaseURL)
		}
	}
	if len(late) != 1 || late[0].Current != StateSignedOut {
		t.Fatalf("removed listener should only see sign out, got %+v", late)
	}
}

func TestListeners_ConcurrentTransitionsArriveInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []StateChange
	a := start(t, host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, "t"))}, WithListener(func(c StateChange) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				a.SignOut()
				return
			}
			_, _ = a.AccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 || seen[0].Previous != StateLoading {
		t.Fatalf("expected first change from loading, got %+v", seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].Previous != seen[i-1].Current {
			t.Fatalf("change %d out of order: %v->%v after %v->%v", i, seen[i].Previous, seen[i].Current, seen[i-1].Previous, seen[i-1].Current)
		}
	}
	if last := seen[len(seen)-1].Current; last != a.State() {
		t.Fatalf("last delivered state %v differs from current %v", last, a.State())
	}
}

func TestListeners_MayCallBackIntoAdapter(t *testing.T) {
	var seen []StateChange
	var a *Adapter
	signedOut := false
	done := make(chan struct{})
	a = New(context.Background(), host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, "t"))}, WithListener(func(c StateChange) {
		seen = append(seen, c)
		if c.Current == StateSignedIn && !signedOut {
			signedOut = true
			<-done
			a.SignOut()
		}
	}))
	close(done)
	if err := a.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(seen) != 2 || seen[1].Previous != StateSignedIn || seen[1].Current != StateSignedOut {
		t.Fatalf("expected nested sign out to be delivered after sign in, got %+v", seen)
	}
	if a.State() != StateSignedOut || a.IsLoggedIn() {
		t.Fatalf("expected signed out, got %v", a.State())
	}
}

type urlClient struct{ url string }

func (c *urlClient) BaseURL() string { return c.url }

func TestBaseURL_DefaultWhenClientIsTypedNil(t *testing.T) {
	var nilClient *urlClient
	hc := host.Context{
		Issuers: host.Issuers(newIssuer(DefaultBaseURL, "t")),
		Clients: host.ClientFactoryFunc(func(context.Context) (host.Client, error) { return nilClient, nil }),
	}
	a := start(t, hc)
	if a.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %q", a.BaseURL())
	}
	if !a.IsLoggedIn() {
		t.Fatal("expected init to complete after recovering the base url")
	}
}

func TestAuthority_ReadWrite(t *testing.T) {
	a := start(t, host.Context{Issuers: host.Issuers(newIssuer(DefaultBaseURL, "t"))}, WithAuthority("https://login.example/common"))
	if a.Authority() != "https://login.example/common" {
		t.Fatalf("unexpected authority %q", a.Authority())
	}
	a.SetAuthority("https://login.example/contoso")
	if a.Authority() != "https://login.example/contoso" {
		t.Fatalf("unexpected authority %q", a.Authority())
	}
}

func TestParseState_RoundTrip(t *testing.T) {
	for _, s := range []State{StateLoading, StateSignedOut, StateSignedIn} {
		got, err := ParseState(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseState(%q)=%v err=%v", s.String(), got, err)
		}
	}
	if _, err := ParseState("maybe"); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
