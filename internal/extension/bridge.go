package extension

import (
	"context"
	"log"
	"time"
)

// AgentChannel is the asynchronous message channel from the content bridge
// to the background agent. A real extension would route this through
// runtime messaging; here the LocalChannel dispatches in-process.
type AgentChannel interface {
	Request(ctx context.Context, req AgentRequest) (*AgentReply, error)
}

// LocalChannel connects a bridge directly to an in-process agent.
type LocalChannel struct {
	agent *Agent
}

// NewLocalChannel wraps an agent as an AgentChannel.
func NewLocalChannel(agent *Agent) *LocalChannel {
	return &LocalChannel{agent: agent}
}

// Request forwards the message to the agent, honoring context cancellation
// so a slow agent never wedges the bridge.
func (c *LocalChannel) Request(ctx context.Context, req AgentRequest) (*AgentReply, error) {
	done := make(chan *AgentReply, 1)
	go func() {
		done <- c.agent.Handle(ctx, req)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case reply := <-done:
		return reply, nil
	}
}

// presenceTimeout bounds the PING round trip for the installed check.
const presenceTimeout = 1500 * time.Millisecond

// Bridge is the content-script analogue: the only path by which the page
// reaches the background agent. Every relay failure becomes a definite
// ACCESS_RESPONSE; the page never waits forever.
type Bridge struct {
	channel AgentChannel
	timeout time.Duration
}

// NewBridge creates a bridge over the given channel. A nil channel models
// the extension not being installed.
func NewBridge(channel AgentChannel) *Bridge {
	return &Bridge{channel: channel, timeout: presenceTimeout}
}

// HandleAccess relays an ACCESS_REQUEST to the agent and converts the
// terminal result (or any relay error) into an ACCESS_RESPONSE.
func (b *Bridge) HandleAccess(ctx context.Context, msg PageMessage) PageMessage {
	if b.channel == nil {
		return accessResponse(false, "extension not available")
	}
	if msg.URL == "" {
		return accessResponse(false, "missing tool url")
	}

	reply, err := b.channel.Request(ctx, AgentRequest{
		Type:    TypeInjectCookiesAndOpen,
		ToolURL: msg.URL,
		Cookies: msg.Cookies,
	})
	if err != nil {
		log.Printf("[bridge] relay failed for tool %s: %v", msg.ToolID, err)
		return accessResponse(false, "extension error: "+err.Error())
	}
	return accessResponse(reply.Success, reply.Error)
}

// HandleCheck answers the extension-presence probe. The PING round trip is
// bounded; on timeout the bridge still answers INSTALLED once the channel
// itself was constructible — "reachable" is treated as proof of presence,
// distinct from "request would succeed". A nil channel returns no answer,
// which the page reads as not installed.
func (b *Bridge) HandleCheck(ctx context.Context) (PageMessage, bool) {
	if b.channel == nil {
		return PageMessage{}, false
	}

	pingCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if _, err := b.channel.Request(pingCtx, AgentRequest{Type: TypePing}); err != nil {
		log.Printf("[bridge] presence ping did not complete (answering installed anyway): %v", err)
	}
	return PageMessage{Type: TypeInstalled}, true
}

// Handle dispatches one page message. Unknown types are ignored, matching
// a content script that only listens for its own message types.
func (b *Bridge) Handle(ctx context.Context, msg PageMessage) (PageMessage, bool) {
	switch msg.Type {
	case TypeAccessRequest:
		return b.HandleAccess(ctx, msg), true
	case TypeCheck:
		return b.HandleCheck(ctx)
	default:
		return PageMessage{}, false
	}
}
