package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"userId":"u-123","status":"created"}`))
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["message"] == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Missing userId or message"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "re: " + req["message"]})
	})
	mux.HandleFunc("/api/memory/u-123", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"userId":"u-123","content":"Allergic to peanuts","createdAt":"2024-05-01T10:00:00Z"}]`))
	})
	mux.HandleFunc("/api/memory/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestUserCreate(t *testing.T) {
	srv := fakeBackend(t)
	out, err := run(t, "", "--server", srv.URL, "user", "create")
	require.NoError(t, err)
	assert.Contains(t, out, "User ID: u-123")
}

func TestChat_SingleMessage(t *testing.T) {
	srv := fakeBackend(t)
	out, err := run(t, "", "--server", srv.URL, "chat", "u-123", "I have a cough")
	require.NoError(t, err)
	assert.Equal(t, "re: I have a cough\n", out)
}

func TestChat_Interactive(t *testing.T) {
	srv := fakeBackend(t)
	out, err := run(t, "hello\n\nI am vegan\n/quit\nignored\n", "--server", srv.URL, "chat", "u-123")
	require.NoError(t, err)
	assert.Contains(t, out, "re: hello")
	assert.Contains(t, out, "re: I am vegan")
	assert.NotContains(t, out, "ignored")
}

func TestChat_ServerErrorSurfaces(t *testing.T) {
	srv := fakeBackend(t)
	_, err := run(t, "", "--server", srv.URL, "chat", "u-123", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing userId or message")
}

func TestMemory(t *testing.T) {
	srv := fakeBackend(t)

	out, err := run(t, "", "--server", srv.URL, "memory", "--json=false", "u-123")
	require.NoError(t, err)
	assert.Equal(t, "- Allergic to peanuts (2024-05-01 10:00)\n", out)

	out, err = run(t, "", "--server", srv.URL, "memory", "--json=false", "empty")
	require.NoError(t, err)
	assert.Equal(t, "No facts remembered yet.\n", out)

	out, err = run(t, "", "--server", srv.URL, "memory", "--json", "u-123")
	require.NoError(t, err)
	var facts []Fact
	require.NoError(t, json.Unmarshal([]byte(out), &facts))
	require.Len(t, facts, 1)
	assert.Equal(t, "Allergic to peanuts", facts[0].Content)
}
