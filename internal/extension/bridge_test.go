package extension

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/growtools/backend/internal/cookie"
	"github.com/stretchr/testify/require"
)

// stuckChannel never answers, modeling a wedged service worker.
type stuckChannel struct{}

func (stuckChannel) Request(ctx context.Context, _ AgentRequest) (*AgentReply, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// errorChannel fails every request.
type errorChannel struct{}

func (errorChannel) Request(context.Context, AgentRequest) (*AgentReply, error) {
	return nil, errors.New("runtime unreachable")
}

func TestBridgeHandleAccess(t *testing.T) {
	t.Parallel()

	set := cookie.Set{
		{Name: "sid", Value: "abc", Domain: "example.com", Path: "/", Secure: true, SameSite: cookie.SameSiteLax},
	}
	encoded, err := cookie.EncodeTransport(set)
	require.NoError(t, err)

	t.Run("relays to agent and reports success", func(t *testing.T) {
		agent := testAgent(NewMemoryJar(), NewMemoryTabs())
		bridge := NewBridge(NewLocalChannel(agent))

		resp := bridge.HandleAccess(context.Background(), PageMessage{
			Type:    TypeAccessRequest,
			ToolID:  "tool-1",
			URL:     "https://example.com",
			Cookies: encoded,
		})
		require.Equal(t, TypeAccessResponse, resp.Type)
		require.NotNil(t, resp.Success)
		require.True(t, *resp.Success)
		require.Empty(t, resp.Error)
	})

	t.Run("agent failure becomes failed response", func(t *testing.T) {
		agent := testAgent(NewMemoryJar(), failingTabs{})
		bridge := NewBridge(NewLocalChannel(agent))

		resp := bridge.HandleAccess(context.Background(), PageMessage{
			Type: TypeAccessRequest, URL: "https://example.com", Cookies: encoded,
		})
		require.NotNil(t, resp.Success)
		require.False(t, *resp.Success)
		require.Contains(t, resp.Error, "failed to open tab")
	})

	t.Run("relay error becomes failed response", func(t *testing.T) {
		bridge := NewBridge(errorChannel{})

		resp := bridge.HandleAccess(context.Background(), PageMessage{
			Type: TypeAccessRequest, URL: "https://example.com", Cookies: encoded,
		})
		require.Equal(t, TypeAccessResponse, resp.Type)
		require.NotNil(t, resp.Success)
		require.False(t, *resp.Success)
		require.Contains(t, resp.Error, "runtime unreachable")
	})

	t.Run("nil channel means extension missing", func(t *testing.T) {
		bridge := NewBridge(nil)

		resp := bridge.HandleAccess(context.Background(), PageMessage{
			Type: TypeAccessRequest, URL: "https://example.com", Cookies: encoded,
		})
		require.NotNil(t, resp.Success)
		require.False(t, *resp.Success)
		require.Contains(t, resp.Error, "extension not available")
	})

	t.Run("missing url fails fast", func(t *testing.T) {
		bridge := NewBridge(NewLocalChannel(testAgent(NewMemoryJar(), NewMemoryTabs())))

		resp := bridge.HandleAccess(context.Background(), PageMessage{Type: TypeAccessRequest})
		require.NotNil(t, resp.Success)
		require.False(t, *resp.Success)
	})
}

func TestBridgeHandleCheck(t *testing.T) {
	t.Parallel()

	t.Run("responsive agent answers installed", func(t *testing.T) {
		bridge := NewBridge(NewLocalChannel(testAgent(NewMemoryJar(), NewMemoryTabs())))

		resp, ok := bridge.HandleCheck(context.Background())
		require.True(t, ok)
		require.Equal(t, TypeInstalled, resp.Type)
	})

	t.Run("unresponsive agent still answers installed", func(t *testing.T) {
		bridge := NewBridge(stuckChannel{})
		bridge.timeout = 10 * time.Millisecond

		start := time.Now()
		resp, ok := bridge.HandleCheck(context.Background())
		require.True(t, ok)
		require.Equal(t, TypeInstalled, resp.Type)
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("nil channel gives no answer", func(t *testing.T) {
		bridge := NewBridge(nil)
		_, ok := bridge.HandleCheck(context.Background())
		require.False(t, ok)
	})
}

func TestBridgeHandle(t *testing.T) {
	t.Parallel()

	bridge := NewBridge(NewLocalChannel(testAgent(NewMemoryJar(), NewMemoryTabs())))

	t.Run("unknown types are ignored", func(t *testing.T) {
		_, ok := bridge.Handle(context.Background(), PageMessage{Type: "SOMETHING_ELSE"})
		require.False(t, ok)
	})

	t.Run("check dispatches", func(t *testing.T) {
		resp, ok := bridge.Handle(context.Background(), PageMessage{Type: TypeCheck})
		require.True(t, ok)
		require.Equal(t, TypeInstalled, resp.Type)
	})
}
