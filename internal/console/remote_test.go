package console_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate_reviews/internal/console"
	"estate_reviews/internal/domain"
)

func TestHTTPRemote(t *testing.T) {
	var gotAuth []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/moderation/session", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"token":"jwt-123","expiresAt":"2030-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/api/moderation", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") != "Bearer jwt-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodGet {
			assert.Equal(t, "pending", r.URL.Query().Get("view"))
			_, _ = w.Write([]byte(`{"ok":true,"reviews":[{"id":"a","status":"pending","rating":4}]}`))
			return
		}
		var in struct {
			IDs    []string `json:"ids"`
			Action string   `json:"action"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "approve", in.Action)
		_, _ = w.Write([]byte(`{"ok":false,"status":"approved","results":[{"id":"a","ok":true,"status":"approved"},{"id":"x","ok":false,"error":"not_found"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	ctx := context.Background()

	rem := console.NewHTTPRemote(srv.URL+"/", "")
	_, err := rem.List(ctx, domain.ViewPending)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = rem.Login(ctx, "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	exp, err := rem.Login(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, 2030, exp.Year())

	rs, err := rem.List(ctx, domain.ViewPending)
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "a", rs[0].ID)

	res, err := rem.Moderate(ctx, []string{"a", "x"}, domain.ActionApprove)
	require.NoError(t, err)
	assert.False(t, res.AllOK())
	assert.Equal(t, []string{"x"}, res.Failed())
	assert.Equal(t, []string{"", "Bearer jwt-123", "Bearer jwt-123"}, gotAuth)
}

func TestConsoleOverHTTP_ServerErrorRollsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"ok":true,"reviews":[{"id":"a","status":"pending"},{"id":"b","status":"pending"}]}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := console.New(console.NewHTTPRemote(srv.URL, "admin"))
	require.NoError(t, c.Load(context.Background(), domain.ViewPending))
	_, err := c.Apply(context.Background(), []string{"a"}, domain.ActionApprove)
	require.Error(t, err)
	assert.Len(t, c.Items(), 2)
}
