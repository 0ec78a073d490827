package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	t.Run("saves the response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("date,value\n2024-01-01,10\n"))
		}))
		defer server.Close()

		dest := filepath.Join(t.TempDir(), "dataset.csv")
		require.NoError(t, download(server.URL, dest))

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "date,value\n2024-01-01,10\n", string(data))
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer server.Close()

		dest := filepath.Join(t.TempDir(), "dataset.csv")
		err := download(server.URL, dest)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")

		_, statErr := os.Stat(dest)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unreachable url is an error", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "dataset.csv")
		assert.Error(t, download("http://127.0.0.1:0/nope", dest))
	})
}
