// Package extension models the browser-extension half of the cookie
// pipeline: a background agent that owns cookie-jar mutations and a
// content bridge that relays page requests to it. The browser APIs are
// injected capabilities (CookieJar, TabOpener) so the injection protocol
// runs unchanged against a real jar or the in-memory fake.
package extension

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/growtools/backend/internal/cookie"
)

// CookieJar is the browser cookie store capability. Every call is
// asynchronous in a real browser and may suspend; implementations must be
// safe for concurrent use, since one batch injects cookies in parallel.
type CookieJar interface {
	GetAll(ctx context.Context, rawurl string) ([]cookie.Native, error)
	Set(ctx context.Context, rawurl string, rec cookie.Record) error
	Remove(ctx context.Context, rawurl, name string) error
}

// TabOpener opens a visible browser tab and returns its id.
type TabOpener interface {
	Open(ctx context.Context, rawurl string) (int, error)
}

// settleDelay lets the cookie store converge before the verification read.
const settleDelay = 300 * time.Millisecond

// Agent is the background service worker analogue: the only component
// allowed to touch the real cookie jar.
type Agent struct {
	jar    CookieJar
	tabs   TabOpener
	settle time.Duration
}

// NewAgent creates an agent over the given jar and tab opener.
func NewAgent(jar CookieJar, tabs TabOpener) *Agent {
	return &Agent{jar: jar, tabs: tabs, settle: settleDelay}
}

// Handle dispatches one bridge request to the agent.
func (a *Agent) Handle(ctx context.Context, req AgentRequest) *AgentReply {
	switch req.Type {
	case TypePing:
		return &AgentReply{Success: true}
	case TypeInjectCookiesAndOpen:
		return a.InjectAndOpen(ctx, req.ToolURL, req.Cookies)
	default:
		return &AgentReply{Success: false, Error: "unknown message type: " + req.Type}
	}
}

// InjectAndOpen runs the injection sequence for one tool: clear colliding
// cookies, inject the batch, verify, then open a tab. Injection is not
// atomic — partial success still opens the tab. The request fails overall
// only when the target URL is absent/invalid or the tab cannot be created.
func (a *Agent) InjectAndOpen(ctx context.Context, toolURL, encoded string) *AgentReply {
	if toolURL == "" {
		return &AgentReply{Success: false, Error: "missing tool url"}
	}
	target, err := url.Parse(toolURL)
	if err != nil || target.Hostname() == "" {
		return &AgentReply{Success: false, Error: "invalid tool url: " + toolURL}
	}

	set, err := cookie.DecodeTransport(encoded)
	if err != nil {
		// An undecodable payload still opens the tab: the user may have a
		// live session already, and an unauthenticated page beats nothing.
		log.Printf("[agent] cookie payload undecodable for %s: %v", target.Hostname(), err)
		set = cookie.Set{}
	}

	a.clearColliding(ctx, toolURL, set)

	results := a.injectBatch(ctx, set, target.Hostname())
	injected := 0
	for _, res := range results {
		if res.OK {
			injected++
		}
	}
	log.Printf("[agent] injected %d/%d cookies for %s", injected, len(set), target.Hostname())

	a.verify(ctx, toolURL)

	tabID, err := a.tabs.Open(ctx, toolURL)
	if err != nil {
		return &AgentReply{
			Success:       false,
			InjectedCount: injected,
			TotalCookies:  len(set),
			Results:       results,
			Error:         "failed to open tab: " + err.Error(),
		}
	}

	return &AgentReply{
		Success:       true,
		TabID:         tabID,
		InjectedCount: injected,
		TotalCookies:  len(set),
		Results:       results,
	}
}

// clearColliding removes existing cookies whose names collide with the
// incoming batch. Clearing is advisory: failures are logged, never fatal,
// and only name-colliding cookies for the target are touched so concurrent
// injections for other domains stay disjoint.
func (a *Agent) clearColliding(ctx context.Context, toolURL string, set cookie.Set) {
	if len(set) == 0 {
		return
	}
	incoming := make(map[string]struct{}, len(set))
	for _, rec := range set {
		incoming[rec.Name] = struct{}{}
	}

	existing, err := a.jar.GetAll(ctx, toolURL)
	if err != nil {
		log.Printf("[agent] failed to enumerate cookies for clearing: %v", err)
		return
	}
	for _, n := range existing {
		if _, collides := incoming[n.Name]; !collides {
			continue
		}
		if err := a.jar.Remove(ctx, toolURL, n.Name); err != nil {
			log.Printf("[agent] failed to clear cookie %q: %v", n.Name, err)
		}
	}
}

// injectBatch submits the whole batch concurrently and collects every
// outcome before returning. A record without a resolvable domain or with
// an unbuildable URL is skipped up front and never reaches the jar.
func (a *Agent) injectBatch(ctx context.Context, set cookie.Set, fallbackHost string) []CookieResult {
	results := make([]CookieResult, len(set))

	var wg sync.WaitGroup
	for i, rec := range set {
		host := cookie.DomainForURL(rec, fallbackHost)
		if host == "" {
			log.Printf("[agent] skipping cookie %q: no resolvable domain", rec.Name)
			results[i] = CookieResult{Name: rec.Name, Error: "no resolvable domain"}
			continue
		}
		injectURL, err := cookie.InjectionURL(rec, host)
		if err != nil {
			log.Printf("[agent] skipping cookie %q: %v", rec.Name, err)
			results[i] = CookieResult{Name: rec.Name, Error: err.Error()}
			continue
		}

		wg.Add(1)
		go func(i int, rec cookie.Record, injectURL string) {
			defer wg.Done()
			if err := a.jar.Set(ctx, injectURL, rec); err != nil {
				results[i] = CookieResult{Name: rec.Name, Error: err.Error()}
				return
			}
			results[i] = CookieResult{Name: rec.Name, OK: true}
		}(i, rec, injectURL)
	}
	wg.Wait()

	return results
}

// verify re-reads the jar after a settle delay and logs what is visible.
// Observational only: no retry, no rollback.
func (a *Agent) verify(ctx context.Context, toolURL string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(a.settle):
	}

	visible, err := a.jar.GetAll(ctx, toolURL)
	if err != nil {
		log.Printf("[agent] verification read failed for %s: %v", toolURL, err)
		return
	}
	sessions := 0
	for _, n := range visible {
		if n.Session || n.ExpirationDate == 0 {
			sessions++
		}
	}
	log.Printf("[agent] verification: %d cookies visible for %s (%d session)", len(visible), toolURL, sessions)
}
