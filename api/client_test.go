// ABOUTME: Tests for the HTTP client wrapper and session handling
// ABOUTME: Uses httptest servers to check headers, error mapping and token persistence
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

type memoryTokenStore struct {
	token   string
	user    *models.User
	saves   int
	cleared bool
}

func (m *memoryTokenStore) LoadSession() (string, *models.User, error) {
	return m.token, m.user, nil
}

func (m *memoryTokenStore) SaveSession(token string, user *models.User) error {
	m.token, m.user = token, user
	m.saves++
	return nil
}

func (m *memoryTokenStore) ClearSession() error {
	m.token, m.user = "", nil
	m.cleared = true
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", nil, opts...), srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRequestSetsHeaders(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/contacts", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"contacts": []any{}})
	})
	require.NoError(t, client.Session().SetToken("tok-123"))

	resp := client.Request(context.Background(), "/contacts", RequestOptions{})
	require.True(t, resp.OK())

	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get("X-Request-ID"), 26)
}

func TestRequestWithoutTokenHasNoAuthorization(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	resp := client.Request(context.Background(), "/auth/me", RequestOptions{})
	assert.True(t, resp.OK())
}

func TestRequestNetworkErrorHasStatusZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, nil)
	resp := client.Request(context.Background(), "/contacts", RequestOptions{})

	assert.Equal(t, 0, resp.Status)
	assert.NotEmpty(t, resp.Error)
	assert.True(t, IsNetwork(resp.Err()))
}

func TestRequestCancelledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := client.Request(ctx, "/contacts", RequestOptions{})
	assert.Equal(t, 0, resp.Status)
	assert.False(t, resp.OK())
}

func TestRequestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", http.StatusNotFound, `{"error":"Contact not found"}`, "Contact not found"},
		{"message field", http.StatusBadRequest, `{"message":"Bad input"}`, "Bad input"},
		{"nested error", http.StatusForbidden, `{"error":{"message":"Admins only"}}`, "Admins only"},
		{"empty body", http.StatusInternalServerError, ``, "Request failed with status 500"},
		{"html body", http.StatusBadGateway, `<html>oops</html>`, "Request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			resp := client.Request(context.Background(), "/x", RequestOptions{})
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.want, resp.Error)
			assert.False(t, resp.OK())
		})
	}
}

func TestRequestValidationFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"fields": map[string]string{"name": "Name is required"},
		})
	})

	err := client.Request(context.Background(), "/contacts", RequestOptions{Method: http.MethodPost, Body: map[string]string{}}).Err()
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Name is required", apiErr.Fields["name"])
}

func TestRequestSendsJSONBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "hello", body["content"])
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
	})

	resp := client.Request(context.Background(), "/contact-notes", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"content": "hello"},
	})
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.True(t, resp.OK())
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotFound(&Error{Status: 404}))
	assert.True(t, IsConflict(&Error{Status: 409}))
	assert.True(t, IsUnauthorized(&Error{Status: 401}))
	assert.True(t, IsForbidden(&Error{Status: 403}))
	assert.True(t, IsNetwork(&Error{Status: 0, Message: "dial tcp"}))
	assert.False(t, IsNotFound(assert.AnError))
	assert.Equal(t, "network error: dial tcp", (&Error{Message: "dial tcp"}).Error())
}

func TestSessionLoadsAndPersists(t *testing.T) {
	st := &memoryTokenStore{token: "saved", user: &models.User{ID: "u1", Role: models.RoleAdmin}}
	s, err := NewSession(st)
	require.NoError(t, err)

	assert.Equal(t, "saved", s.Token())
	assert.True(t, s.IsAdmin())

	require.NoError(t, s.SetToken("fresh"))
	assert.Equal(t, "fresh", st.token)
	assert.Equal(t, "u1", st.user.ID)

	require.NoError(t, s.Clear())
	assert.True(t, st.cleared)
	assert.False(t, s.LoggedIn())
	assert.Nil(t, s.User())
}

func TestLoginStoresSession(t *testing.T) {
	st := &memoryTokenStore{}
	session, err := NewSession(st)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			writeJSON(w, http.StatusOK, map[string]any{
				"token": "tok-abc",
				"user":  map[string]any{"id": "u1", "name": "Ada", "email": "ada@example.com", "role": "admin"},
			})
		case "/auth/logout":
			assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, session)
	user, err := client.Auth.Login(context.Background(), "ada@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "tok-abc", st.token)
	assert.True(t, client.Session().IsAdmin())

	require.NoError(t, client.Auth.Logout(context.Background()))
	assert.True(t, st.cleared)
	assert.False(t, client.Session().LoggedIn())
}

func TestLoginValidatesLocally(t *testing.T) {
	hits := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { hits++ })

	_, err := client.Auth.Login(context.Background(), "not-an-email", "")
	require.Error(t, err)
	assert.Equal(t, 0, hits)
}

func TestMeRequiresLogin(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)
	_, err := client.Auth.Me(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
