package util

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
)

func TestDoJSONRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]int{"got": in["n"] + 1})
	}))
	defer srv.Close()

	var out struct {
		Got int `json:"got"`
	}
	err := DoJSON(context.Background(), srv.Client(), Request{
		Method:        http.MethodPost,
		URL:           srv.URL,
		Authorization: "Bearer tok",
		Body:          map[string]int{"n": 41},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 42, out.Got)
}

func TestDoJSONClassifiesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Deck name already exists."}`))
	}))
	defer srv.Close()

	err := DoJSON(context.Background(), srv.Client(), Request{Method: http.MethodGet, URL: srv.URL}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "Deck name already exists.")
}

func TestDoJSONDecodeFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := DoJSON(context.Background(), srv.Client(), Request{Method: http.MethodGet, URL: srv.URL}, &out)
	assert.True(t, apperrors.IsTransport(err))
}

func TestGetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	b, err := GetBytes(context.Background(), srv.Client(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))

	_, err = GetBytes(context.Background(), srv.Client(), srv.URL+"/missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestWriteFileCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "decks")

	p, err := WriteFile(dir, "deck.txt", []byte("# Zeon\n"))
	require.NoError(t, err)

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "# Zeon\n", string(b))
}
