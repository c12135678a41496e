package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/growtools/backend/internal/domain"
	"github.com/growtools/backend/internal/extension"
	"github.com/growtools/backend/internal/service"
	"github.com/stretchr/testify/require"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (s *memUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memUserStore) Exists(ctx context.Context, email string) (bool, error) {
	u, err := s.FindByEmail(ctx, email)
	return u != nil, err
}

func (s *memUserStore) ListAll(context.Context) ([]*domain.User, error) { return nil, nil }

func (s *memUserStore) UpdateStatus(context.Context, string, string) error { return nil }

func (s *memUserStore) Delete(context.Context, string) error { return nil }

func setupBridgeServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	auth := service.NewAuthService("test-secret", "admin@example.com", "admin-pass", newMemUserStore())
	require.NoError(t, auth.SeedAdmin(context.Background()))
	resp, err := auth.Login(context.Background(), "admin@example.com", "admin-pass")
	require.NoError(t, err)

	agent := extension.NewAgent(extension.NewMemoryJar(), extension.NewMemoryTabs())
	bridge := extension.NewBridge(extension.NewLocalChannel(agent))
	handler := NewBridgeHandler(bridge, auth)

	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)
	return srv, resp.Token
}

func wsURL(httpURL, token string) string {
	return strings.Replace(httpURL, "http://", "ws://", 1) + "?token=" + token
}

func TestBridgeHandler(t *testing.T) {
	srv, token := setupBridgeServer(t)

	t.Run("rejects missing token", func(t *testing.T) {
		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects bad token", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "?token=bogus")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("answers presence check", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, token), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(extension.PageMessage{Type: extension.TypeCheck}))

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var reply extension.PageMessage
		require.NoError(t, conn.ReadJSON(&reply))
		require.Equal(t, extension.TypeInstalled, reply.Type)
	})

	t.Run("relays access request", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv.URL, token), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(extension.PageMessage{
			Type: extension.TypeAccessRequest,
			URL:  "https://example.com",
		}))

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var reply extension.PageMessage
		require.NoError(t, conn.ReadJSON(&reply))
		require.Equal(t, extension.TypeAccessResponse, reply.Type)
		require.NotNil(t, reply.Success)
		require.True(t, *reply.Success)
	})
}
